package appstate

import (
	"errors"
	"sync"
	"testing"
)

func TestReducers(t *testing.T) {
	s := Initial()

	next, err := SetLanguage(s, LanguageIndonesian)
	if err != nil || next.Language != LanguageIndonesian {
		t.Errorf("SetLanguage(id) = %v, %v", next.Language, err)
	}
	if s.Language != LanguageEnglish {
		t.Error("SetLanguage mutated its input")
	}

	if _, err := SetLanguage(s, "fr"); !errors.Is(err, ErrInvalidLanguage) {
		t.Errorf("SetLanguage(fr) err = %v", err)
	}

	dark := ToggleTheme(s)
	if dark.Theme != ThemeDark || ToggleTheme(dark).Theme != ThemeLight {
		t.Error("ToggleTheme should flip light and dark")
	}

	pts, err := UpdatePoints(s, 100)
	if err != nil || pts.User.Points != 100 || pts.User.Name != s.User.Name {
		t.Errorf("UpdatePoints = %+v, %v", pts.User, err)
	}
	if _, err := UpdatePoints(s, -1); !errors.Is(err, ErrNegativePoints) {
		t.Errorf("UpdatePoints(-1) err = %v", err)
	}
}

func TestInitialSeed(t *testing.T) {
	s := Initial()
	if s.User.Points != 2450 || len(s.Promos) != 2 || len(s.Products) != 2 {
		t.Errorf("seed = %+v", s)
	}
	if s.Products[1].Color != "Pearl White" {
		t.Errorf("product color = %q", s.Products[1].Color)
	}
}

func TestStore_PerUser(t *testing.T) {
	store := NewStore()

	if _, err := store.Apply("u1", func(s State) (State, error) { return ToggleTheme(s), nil }); err != nil {
		t.Fatal(err)
	}

	if store.Get("u1").Theme != ThemeDark {
		t.Error("u1 theme should be dark")
	}
	if store.Get("u2").Theme != ThemeLight {
		t.Error("u2 must not see u1's state")
	}
}

func TestStore_FailedReducerKeepsState(t *testing.T) {
	store := NewStore()

	got, err := store.Apply("u1", func(s State) (State, error) { return UpdatePoints(s, -5) })
	if !errors.Is(err, ErrNegativePoints) {
		t.Fatalf("err = %v", err)
	}
	if got.User.Points != 2450 || store.Get("u1").User.Points != 2450 {
		t.Error("failed reducer must not change state")
	}
}

func TestStore_ReturnedStateIsACopy(t *testing.T) {
	store := NewStore()
	s := store.Get("u1")
	s.Promos[0].Title = "changed"

	if store.Get("u1").Promos[0].Title == "changed" {
		t.Error("mutating a returned state leaked into the store")
	}
}

func TestStore_ConcurrentApply(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Apply("u1", func(s State) (State, error) {
				return UpdatePoints(s, s.User.Points+1)
			})
		}()
	}
	wg.Wait()

	if got := store.Get("u1").User.Points; got != 2550 {
		t.Errorf("points = %d, want 2550", got)
	}
}
