// Scenario tests for the persistent word index.
//
// One region per process: tests run sequentially and close their index
// before returning.

package wordindex_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/wordvault/pkg/scm"
	"github.com/calvinalkan/wordvault/pkg/wordindex"
)

// makeStoreFile creates a zeroed backing file of the given size.
func makeStoreFile(t *testing.T, size int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "words.scm")

	err := os.WriteFile(path, make([]byte, size), 0o600)
	if err != nil {
		t.Fatalf("creating backing file: %v", err)
	}

	return path
}

// openFresh opens a truncated index and registers its close as cleanup.
func openFresh(t *testing.T, size int) *wordindex.Index {
	t.Helper()

	ix, err := wordindex.Open(makeStoreFile(t, size), true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	t.Cleanup(func() { _ = ix.Close() })

	return ix
}

// mustInsert inserts every word and fails the test on error.
func mustInsert(t *testing.T, ix *wordindex.Index, words ...string) {
	t.Helper()

	for _, w := range words {
		err := ix.Insert(w)
		if err != nil {
			t.Fatalf("insert %q: %v", w, err)
		}
	}
}

// checkInvariants fails the test if any tree law is violated.
func checkInvariants(t *testing.T, ix *wordindex.Index) {
	t.Helper()

	err := wordindex.CheckInvariants(ix)
	if err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

// walkWords collects the traversal as (word, count) pairs.
func walkWords(ix *wordindex.Index) ([]string, []uint64) {
	var (
		words  []string
		counts []uint64
	)

	ix.Walk(func(word string, count uint64) {
		words = append(words, word)
		counts = append(counts, count)
	})

	return words, counts
}

func Test_Insert_Fresh_Word_Sets_Counters(t *testing.T) {
	ix := openFresh(t, 4096)

	mustInsert(t, ix, "foo")

	if ix.Items() != 1 || ix.Unique() != 1 {
		t.Fatalf("items=%d unique=%d, want 1/1", ix.Items(), ix.Unique())
	}

	if got := ix.Count("foo"); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}

	if got := wordindex.RootWord(ix); got != "foo" {
		t.Fatalf("root = %q, want foo", got)
	}

	checkInvariants(t, ix)
}

func Test_Insert_Duplicates_Bumps_Count_Only(t *testing.T) {
	ix := openFresh(t, 4096)

	used := ix.Utilized()

	mustInsert(t, ix, "apple")

	afterFirst := ix.Utilized()
	if afterFirst == used {
		t.Fatal("first insert should allocate")
	}

	mustInsert(t, ix, "apple", "apple")

	if ix.Utilized() != afterFirst {
		t.Fatal("repeat insert should not allocate")
	}

	if ix.Items() != 3 || ix.Unique() != 1 {
		t.Fatalf("items=%d unique=%d, want 3/1", ix.Items(), ix.Unique())
	}

	if got := ix.Count("apple"); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}

	checkInvariants(t, ix)
}

func Test_Insert_Ascending_Run_Rotates_Root(t *testing.T) {
	ix := openFresh(t, 4096)

	mustInsert(t, ix, "a", "b", "c")

	if got := wordindex.RootWord(ix); got != "b" {
		t.Fatalf("root = %q, want b", got)
	}

	words, _ := walkWords(ix)
	if len(words) != 3 || words[0] != "a" || words[1] != "b" || words[2] != "c" {
		t.Fatalf("walk = %v", words)
	}

	checkInvariants(t, ix)
}

func Test_Insert_Descending_Run_Rotates_Root(t *testing.T) {
	ix := openFresh(t, 4096)

	mustInsert(t, ix, "c", "b", "a")

	if got := wordindex.RootWord(ix); got != "b" {
		t.Fatalf("root = %q, want b", got)
	}

	checkInvariants(t, ix)
}

func Test_Insert_Zigzag_Triggers_Double_Rotations(t *testing.T) {
	ix := openFresh(t, 8192)

	// Left-right case at the root, then a right-left case at "c" when
	// "z" and "x" hang off its right side.
	mustInsert(t, ix, "c", "a", "b")
	checkInvariants(t, ix)

	mustInsert(t, ix, "z", "x", "y")
	checkInvariants(t, ix)

	words, _ := walkWords(ix)
	want := []string{"a", "b", "c", "x", "y", "z"}

	for i, w := range want {
		if words[i] != w {
			t.Fatalf("walk = %v, want %v", words, want)
		}
	}
}

func Test_Close_And_Reopen_Restores_Tree(t *testing.T) {
	path := makeStoreFile(t, 8192)

	ix, err := wordindex.Open(path, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, w := range []string{"x", "y", "z"} {
		err = ix.Insert(w)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	err = ix.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	ix, err = wordindex.Open(path, false)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ix.Close()

	if ix.Items() != 3 || ix.Unique() != 3 {
		t.Fatalf("items=%d unique=%d after reopen, want 3/3", ix.Items(), ix.Unique())
	}

	if got := ix.Count("y"); got != 1 {
		t.Fatalf("count(y) = %d, want 1", got)
	}

	words, _ := walkWords(ix)
	if len(words) != 3 || words[0] != "x" || words[1] != "y" || words[2] != "z" {
		t.Fatalf("walk after reopen = %v", words)
	}

	checkInvariants(t, ix)
}

func Test_Delete_Removes_Whole_Count(t *testing.T) {
	ix := openFresh(t, 4096)

	mustInsert(t, ix, "k", "k", "k")

	err := ix.Delete("k")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if ix.Items() != 0 || ix.Unique() != 0 {
		t.Fatalf("items=%d unique=%d, want 0/0", ix.Items(), ix.Unique())
	}

	if got := wordindex.RootWord(ix); got != "" {
		t.Fatalf("root = %q, want empty", got)
	}

	checkInvariants(t, ix)
}

func Test_Delete_Node_With_Two_Children_Keeps_Order(t *testing.T) {
	ix := openFresh(t, 8192)

	mustInsert(t, ix, "m", "f", "s", "a", "h", "r", "z")

	err := ix.Delete("m")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := ix.Count("m"); got != 0 {
		t.Fatalf("count(m) = %d after delete", got)
	}

	words, _ := walkWords(ix)
	want := []string{"a", "f", "h", "r", "s", "z"}

	if len(words) != len(want) {
		t.Fatalf("walk = %v, want %v", words, want)
	}

	for i, w := range want {
		if words[i] != w {
			t.Fatalf("walk = %v, want %v", words, want)
		}
	}

	checkInvariants(t, ix)
}

func Test_Delete_Absent_Word_Returns_NotFound(t *testing.T) {
	ix := openFresh(t, 4096)

	mustInsert(t, ix, "here")

	err := ix.Delete("gone")
	if !errors.Is(err, wordindex.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if ix.Items() != 1 || ix.Unique() != 1 {
		t.Fatalf("counters mutated by failed delete: %d/%d", ix.Items(), ix.Unique())
	}

	checkInvariants(t, ix)
}

func Test_Insert_Empty_Word_Rejected(t *testing.T) {
	ix := openFresh(t, 4096)

	err := ix.Insert("")
	if !errors.Is(err, wordindex.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	err = ix.Delete("")
	if !errors.Is(err, wordindex.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func Test_Insert_Fails_When_Region_Full(t *testing.T) {
	// Room for the state block and one word, not two.
	ix := openFresh(t, 120)

	mustInsert(t, ix, "first")

	err := ix.Insert("second")
	if !errors.Is(err, scm.ErrFull) {
		t.Fatalf("expected scm.ErrFull, got %v", err)
	}

	// Failed insert must not have linked a partial node.
	if ix.Items() != 1 || ix.Unique() != 1 {
		t.Fatalf("counters mutated by failed insert: %d/%d", ix.Items(), ix.Unique())
	}

	checkInvariants(t, ix)

	// The existing word is untouched and repeats still work: they need
	// no allocation.
	mustInsert(t, ix, "first")

	if got := ix.Count("first"); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
}

func Test_Count_On_Prefix_Words_Distinguishes_Lengths(t *testing.T) {
	ix := openFresh(t, 8192)

	mustInsert(t, ix, "car", "cart", "car")

	if got := ix.Count("car"); got != 2 {
		t.Fatalf("count(car) = %d, want 2", got)
	}

	if got := ix.Count("cart"); got != 1 {
		t.Fatalf("count(cart) = %d, want 1", got)
	}

	words, _ := walkWords(ix)
	if len(words) != 2 || words[0] != "car" || words[1] != "cart" {
		t.Fatalf("walk = %v, want [car cart]", words)
	}
}

func Test_Closed_Index_Rejects_Operations(t *testing.T) {
	path := makeStoreFile(t, 4096)

	ix, err := wordindex.Open(path, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	err = ix.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := ix.Insert("x"); !errors.Is(err, wordindex.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	if got := ix.Count("x"); got != 0 {
		t.Fatalf("count on closed = %d", got)
	}

	if err := ix.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
