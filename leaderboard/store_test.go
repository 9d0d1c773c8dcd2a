package leaderboard

import (
	"context"
	"path/filepath"
	"testing"

	"tagarena/game"
)

func result(name string, score, rank int, bot bool) game.Result {
	return game.Result{
		PlayerView: game.PlayerView{ID: name, Name: name, IsBot: bot},
		Score:      score,
		Rank:       rank,
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "board.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
}

func TestStoreAggregatesPerName(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			round1 := []game.Result{
				result("alice", 700, 1, false),
				result("Blinky", 650, 2, true),
				result("bob", 120, 3, false),
			}
			round2 := []game.Result{
				result("bob", 500, 1, false),
				result("alice", 300, 2, false),
			}
			if err := s.Record(ctx, round1); err != nil {
				t.Fatalf("record round1: %v", err)
			}
			if err := s.Record(ctx, round2); err != nil {
				t.Fatalf("record round2: %v", err)
			}

			top, err := s.Top(ctx, 10)
			if err != nil {
				t.Fatalf("top: %v", err)
			}
			if len(top) != 2 {
				t.Fatalf("entries = %+v, want 2 humans", top)
			}
			want := []Entry{
				{Name: "alice", GamesPlayed: 2, TotalScore: 1000, BestScore: 700, Wins: 1},
				{Name: "bob", GamesPlayed: 2, TotalScore: 620, BestScore: 500, Wins: 1},
			}
			for i := range want {
				if top[i] != want[i] {
					t.Fatalf("entry %d = %+v, want %+v", i, top[i], want[i])
				}
			}
		})
	}
}

func TestStoreTopLimit(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := s.Record(ctx, []game.Result{
				result("a", 30, 1, false),
				result("b", 20, 2, false),
				result("c", 10, 3, false),
			})
			if err != nil {
				t.Fatal(err)
			}
			top, err := s.Top(ctx, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(top) != 2 || top[0].Name != "a" || top[1].Name != "b" {
				t.Fatalf("top = %+v", top)
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Record(context.Background(), []game.Result{result("alice", 42, 1, false)}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	top, err := s.Top(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].TotalScore != 42 || top[0].Wins != 1 {
		t.Fatalf("top after reopen = %+v", top)
	}
}
