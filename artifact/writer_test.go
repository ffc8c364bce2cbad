package artifact

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteUnitToFileWithPrefix(t *testing.T) {
	dir, err := ioutil.TempDir("", "artifact")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w := &Writer{ArtifactPrefix: dir + string(filepath.Separator)}
	path := w.WriteUnitToFileWithPrefix([]byte("payload"), "crash-")

	data, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read written artifact: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("artifact contents = %q, want %q", data, "payload")
	}
	if filepath.Base(path)[:6] != "crash-" {
		t.Fatalf("artifact name %q missing crash- prefix", filepath.Base(path))
	}
}

func TestWriteToOutputCorpusIsIdempotent(t *testing.T) {
	dir, err := ioutil.TempDir("", "corpus")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w, err := New("", "", dir)
	if err != nil {
		t.Fatal(err)
	}
	w.WriteToOutputCorpus([]byte("unit"))
	w.WriteToOutputCorpus([]byte("unit"))

	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file, got %d", len(entries))
	}
}

func TestReadSeedsReturnsEveryFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "seeds")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w, err := New("", "", dir)
	if err != nil {
		t.Fatal(err)
	}
	w.WriteToOutputCorpus([]byte("one"))
	w.WriteToOutputCorpus([]byte("two"))

	seeds, err := w.ReadSeeds()
	if err != nil {
		t.Fatal(err)
	}
	if len(seeds) != 2 {
		t.Fatalf("ReadSeeds() returned %d seeds, want 2", len(seeds))
	}
}

func TestReadNewSinceOnlyReturnsFresh(t *testing.T) {
	dir, err := ioutil.TempDir("", "reload")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w, err := New("", "", dir)
	if err != nil {
		t.Fatal(err)
	}

	files, epoch, err := w.ReadNewSince(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files initially, got %d", len(files))
	}

	w.WriteToOutputCorpus([]byte("new"))
	files, _, err = w.ReadNewSince(epoch - 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("expected exactly one new file, got %d", len(files))
	}
}
