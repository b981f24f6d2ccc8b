package redisstore

import (
	"os"
	"reflect"
	"testing"

	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/pdt"
)

func dialTestStore(t *testing.T) *Store {
	addr := os.Getenv("PDT_REDIS_ADDR")
	if addr == "" {
		t.Skip("PDT_REDIS_ADDR is not set")
	}
	store, err := Dial(addr, "pdt-test")
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestSaveLoad(t *testing.T) {
	store := dialTestStore(t)
	defer store.Close()

	model := pdt.NewModel(pdt.KindRegression, nil, 2, &pdt.ConditionalNode{
		Col:       1,
		Threshold: 2.5,
		Then:      &pdt.LeafNode{Value: 4, Samples: 2},
		Else:      &pdt.LeafNode{Value: -1, Samples: 3},
		Samples:   5,
	})
	if err := store.Save("tree", model); err != nil {
		t.Fatal(err)
	}
	defer store.Delete("tree")

	loaded, err := store.Load("tree")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, model) {
		t.Errorf("loaded %+v, saved %+v", loaded, model)
	}
}

func TestLoadMissing(t *testing.T) {
	store := dialTestStore(t)
	defer store.Close()

	if _, err := store.Load("no-such-model"); err == nil {
		t.Error("expected an error for a missing model")
	}
}

func TestKeyFor(t *testing.T) {
	store := New(nil, "models")
	if got := store.keyFor("iris"); got != "models:iris" {
		t.Errorf("key %q", got)
	}
}
