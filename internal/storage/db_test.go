package storage

import (
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestToggleFavorite(t *testing.T) {
	d := openTestDB(t)

	on, err := d.ToggleFavorite("work/plan.md")
	if err != nil || !on {
		t.Fatalf("first toggle: on=%v err=%v", on, err)
	}
	if fav, _ := d.IsFavorite("work/plan.md"); !fav {
		t.Error("should be favorite after toggle on")
	}

	on, err = d.ToggleFavorite("work/plan.md")
	if err != nil || on {
		t.Fatalf("second toggle: on=%v err=%v", on, err)
	}
	if fav, _ := d.IsFavorite("work/plan.md"); fav {
		t.Error("should not be favorite after toggle off")
	}
}

func TestListAndRemoveFavorites(t *testing.T) {
	d := openTestDB(t)

	for _, p := range []string{"a.md", "b.md", "c.md"} {
		if _, err := d.ToggleFavorite(p); err != nil {
			t.Fatal(err)
		}
	}

	list, err := d.ListFavorites()
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %v", list)
	}

	if err := d.RemoveFavorite("b.md"); err != nil {
		t.Fatal(err)
	}
	list, _ = d.ListFavorites()
	if len(list) != 2 {
		t.Fatalf("after remove: %v", list)
	}
	// Removing a non-favorite is a no-op.
	if err := d.RemoveFavorite("nope.md"); err != nil {
		t.Fatal(err)
	}
}

func TestSettings(t *testing.T) {
	d := openTestDB(t)

	if v, err := d.GetSetting("theme", "light"); err != nil || v != "light" {
		t.Fatalf("default: %q, %v", v, err)
	}

	if err := d.SetSetting("theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSetting("theme", "solarized"); err != nil {
		t.Fatal(err)
	}

	if v, _ := d.GetSetting("theme", "light"); v != "solarized" {
		t.Errorf("got %q", v)
	}

	all, err := d.AllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all["theme"] != "solarized" {
		t.Errorf("AllSettings: %v", all)
	}
}
