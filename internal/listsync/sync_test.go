package listsync

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct{ ID int }

func rows(ids ...int) []row {
	out := make([]row, len(ids))
	for i, id := range ids {
		out[i] = row{ID: id}
	}
	return out
}

func started(t *testing.T, raw string) (*Synchronizer[row], *Request) {
	t.Helper()
	s := New[row](orderSchema(), raw)
	eff := s.Start()
	require.NotNil(t, eff.Fetch)
	assert.False(t, eff.WriteAddress)
	return s, eff.Fetch
}

func TestStartParsesAddress(t *testing.T) {
	s, req := started(t, "status=PENDING&page=2&q=42")
	assert.Equal(t, 1, req.Query.Page)
	assert.Equal(t, "PENDING", req.Query.Filter("status"))
	assert.Equal(t, "42", s.Input())
	assert.Equal(t, PhaseFetching, s.Phase())
	assert.True(t, s.Loading())
}

func TestPageClampConvergesInOneStep(t *testing.T) {
	s, req := started(t, "page=6")
	require.Equal(t, 5, req.Query.Page)

	eff, ok := s.Receive(req.Seq, Result[row]{TotalPages: 3, TotalElements: 25, Page: 5})
	require.True(t, ok)
	require.NotNil(t, eff.Fetch)
	assert.Equal(t, 2, eff.Fetch.Query.Page)
	assert.Equal(t, PhaseCorrecting, s.Phase())
	assert.True(t, eff.WriteAddress)
	assert.Equal(t, "page=3", eff.Address)

	written := eff.Address

	eff, ok = s.Receive(eff.Fetch.Seq, Result[row]{Items: rows(21, 22), TotalPages: 3, TotalElements: 25, Page: 2})
	require.True(t, ok)
	assert.True(t, eff.Empty(), "corrected page must not trigger another fetch")
	assert.Equal(t, 2, s.Query().Page)
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, rows(21, 22), s.Result().Items)

	// The echo of our own write leaves the page alone, and so does a repeat.
	assert.True(t, s.Reconcile(written).Empty())
	assert.True(t, s.Reconcile("page=3").Empty())
	assert.Equal(t, 2, s.Query().Page)
}

func TestPageClampIgnoredWhenNoPages(t *testing.T) {
	s, req := started(t, "page=4")
	eff, ok := s.Receive(req.Seq, Result[row]{TotalPages: 0})
	require.True(t, ok)
	assert.True(t, eff.Empty())
	assert.Equal(t, 3, s.Query().Page)
}

func TestDebounceCommitsOnce(t *testing.T) {
	s, req := started(t, "")
	_, ok := s.Receive(req.Seq, Result[row]{Items: rows(1), TotalPages: 1, TotalElements: 1})
	require.True(t, ok)

	// Virtual clock: keystrokes every 100ms, each arming a 300ms timer.
	type timer struct {
		at    time.Duration
		token uint64
	}
	var timers []timer
	quiet := s.QuietPeriod()
	require.Equal(t, 300*time.Millisecond, quiet)
	for i, text := range []string{"a", "ab", "abc"} {
		at := time.Duration(i) * 100 * time.Millisecond
		timers = append(timers, timer{at: at + quiet, token: s.SetInput(text)})
		assert.Equal(t, text, s.Input())
		assert.Empty(t, s.Query().Search, "keystrokes must not commit immediately")
	}
	sort.Slice(timers, func(i, j int) bool { return timers[i].at < timers[j].at })

	var fetches []*Request
	var commits []string
	for _, tm := range timers {
		eff := s.CommitInput(tm.token)
		if eff.Fetch != nil {
			fetches = append(fetches, eff.Fetch)
			commits = append(commits, s.Query().Search)
		}
	}
	require.Len(t, fetches, 1)
	assert.Equal(t, []string{"abc"}, commits)
	assert.Equal(t, "abc", fetches[0].Query.Search)
	assert.Equal(t, 0, fetches[0].Query.Page)
}

func TestSearchCommitResetsPage(t *testing.T) {
	s, req := started(t, "page=3")
	s.Receive(req.Seq, Result[row]{TotalPages: 5})
	token := s.SetInput("  77 ")
	eff := s.CommitInput(token)
	require.NotNil(t, eff.Fetch)
	assert.Equal(t, 0, eff.Fetch.Query.Page)
	assert.Equal(t, "77", eff.Fetch.Query.Search)
	assert.Equal(t, "q=77", eff.Address)

	// Committing the same trimmed text again is a no-op.
	assert.True(t, s.CommitInput(s.SetInput("77")).Empty())
}

func TestFilterSizeSortResetPage(t *testing.T) {
	s, req := started(t, "page=4")
	s.Receive(req.Seq, Result[row]{TotalPages: 9})

	eff := s.SetFilter("status", "DELIVERED")
	require.NotNil(t, eff.Fetch)
	assert.Equal(t, 0, eff.Fetch.Query.Page)
	assert.Equal(t, "status=DELIVERED", eff.Address)

	s.SetPage(2)
	eff = s.SetSize(50)
	require.NotNil(t, eff.Fetch)
	assert.Equal(t, 0, eff.Fetch.Query.Page)

	s.SetPage(2)
	eff = s.SetSort("totalAmount", SortAsc)
	require.NotNil(t, eff.Fetch)
	assert.Equal(t, 0, eff.Fetch.Query.Page)
	assert.Equal(t, "totalAmount,asc", eff.Fetch.Query.Sort())
}

func TestInvalidMutationsAreIgnored(t *testing.T) {
	s, _ := started(t, "")
	assert.True(t, s.SetFilter("status", "SHIPPED").Empty())
	assert.True(t, s.SetFilter("nope", "x").Empty())
	assert.True(t, s.SetSize(33).Empty())
	assert.True(t, s.SetSort("name", SortAsc).Empty())
	assert.True(t, s.SetFilter("status", "ALL").Empty(), "default value on an unset filter changes nothing")
}

func TestReconcileExternalChangeKeepsPage(t *testing.T) {
	s, req := started(t, "")
	s.Receive(req.Seq, Result[row]{TotalPages: 9})

	// Back/forward or a deep link: filter and page change together.
	eff := s.Reconcile("status=PENDING&page=4&q=12")
	require.NotNil(t, eff.Fetch)
	assert.False(t, eff.WriteAddress)
	assert.Equal(t, 3, eff.Fetch.Query.Page, "address-driven change must not reset the page")
	assert.Equal(t, "12", s.Input())

	// Same address again is a no-op.
	assert.True(t, s.Reconcile("page=4&q=12&status=PENDING").Empty())
}

func TestReconcileInvalidatesPendingDebounce(t *testing.T) {
	s, _ := started(t, "")
	token := s.SetInput("abc")
	s.Reconcile("q=xyz")
	assert.True(t, s.CommitInput(token).Empty())
	assert.Equal(t, "xyz", s.Query().Search)
}

func TestExternalChangeBeforeOwnEcho(t *testing.T) {
	s, req := started(t, "")
	s.Receive(req.Seq, Result[row]{TotalPages: 9})

	own := s.SetFilter("status", "PENDING")
	require.True(t, own.WriteAddress)

	// An external navigation lands before our own write is reconciled.
	eff := s.Reconcile("status=CANCELLED")
	require.NotNil(t, eff.Fetch)
	assert.Equal(t, "CANCELLED", s.Query().Filter("status"))

	// The late echo does not undo it.
	assert.True(t, s.Reconcile(own.Address).Empty())
	assert.Equal(t, "CANCELLED", s.Query().Filter("status"))
	assert.Equal(t, "status=CANCELLED", s.Address())
}

func TestAddressWriteSkippedWhenIdentical(t *testing.T) {
	s, req := started(t, "size=20")
	s.Receive(req.Seq, Result[row]{TotalPages: 2})
	eff := s.SetPage(0)
	assert.True(t, eff.Empty())

	eff = s.SetPage(1)
	require.True(t, eff.WriteAddress)
	assert.Equal(t, "page=2&size=20", eff.Address)
}

func TestStaleResponseNeverOverwritesNewer(t *testing.T) {
	s, first := started(t, "")
	second := s.SetFilter("status", "PENDING").Fetch
	require.NotNil(t, second)
	require.Greater(t, second.Seq, first.Seq)

	_, ok := s.Receive(second.Seq, Result[row]{Items: rows(2), TotalPages: 1, TotalElements: 1})
	require.True(t, ok)

	// The older request resolves late.
	_, ok = s.Receive(first.Seq, Result[row]{Items: rows(1, 1, 1), TotalPages: 1, TotalElements: 3})
	assert.False(t, ok)
	assert.False(t, s.Fail(first.Seq, errors.New("late failure")))

	assert.Equal(t, rows(2), s.Result().Items)
	assert.Equal(t, 1, s.Result().TotalElements)
	assert.NoError(t, s.Err())
}

func TestStaleResponseBeforeNewerArrives(t *testing.T) {
	s, first := started(t, "")
	second := s.SetSize(20).Fetch
	_, ok := s.Receive(first.Seq, Result[row]{Items: rows(9), TotalPages: 1})
	assert.False(t, ok)
	assert.False(t, s.HasResult())
	assert.True(t, s.Loading())

	_, ok = s.Receive(second.Seq, Result[row]{Items: rows(3), TotalPages: 1})
	assert.True(t, ok)
	assert.Equal(t, rows(3), s.Result().Items)
}

func TestSilentRefetchKeepsRows(t *testing.T) {
	s, req := started(t, "")
	s.Receive(req.Seq, Result[row]{Items: rows(1, 2, 3), TotalPages: 1, TotalElements: 3})

	eff := s.Refresh(true)
	require.NotNil(t, eff.Fetch)
	assert.True(t, eff.Fetch.Silent)
	assert.False(t, s.Loading(), "silent refetch must not enter the loading state")
	assert.True(t, s.Refreshing())
	assert.Equal(t, rows(1, 2, 3), s.Result().Items, "rows stay until new data arrives")

	_, ok := s.Receive(eff.Fetch.Seq, Result[row]{Items: rows(1, 3), TotalPages: 1, TotalElements: 2})
	require.True(t, ok)
	assert.Equal(t, 2, s.Result().TotalElements)
	assert.Equal(t, rows(1, 3), s.Result().Items)
	assert.False(t, s.Refreshing())
}

func TestFailureKeepsQueryAndLastResult(t *testing.T) {
	s, req := started(t, "")
	s.Receive(req.Seq, Result[row]{Items: rows(1), TotalPages: 2, TotalElements: 11})

	eff := s.NextPage()
	require.NotNil(t, eff.Fetch)
	boom := errors.New("connection refused")
	require.True(t, s.Fail(eff.Fetch.Seq, boom))

	assert.Equal(t, PhaseError, s.Phase())
	assert.ErrorIs(t, s.Err(), boom)
	assert.Equal(t, 1, s.Query().Page)
	assert.Equal(t, rows(1), s.Result().Items)

	// Recovery clears the error.
	eff = s.Refresh(false)
	s.Receive(eff.Fetch.Seq, Result[row]{Items: rows(11), TotalPages: 2, TotalElements: 11})
	assert.NoError(t, s.Err())
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestPagingHelpers(t *testing.T) {
	s, req := started(t, "")
	s.Receive(req.Seq, Result[row]{TotalPages: 4})

	assert.True(t, s.PrevPage().Empty())
	assert.Equal(t, 3, s.LastPage().Fetch.Query.Page)
	s.Receive(s.seq, Result[row]{TotalPages: 4, Page: 3})
	assert.True(t, s.NextPage().Empty(), "next on the last page stays put")
	assert.Equal(t, 0, s.FirstPage().Fetch.Query.Page)
}

func TestClearFilters(t *testing.T) {
	s, req := started(t, "status=PENDING&size=20&q=5&sort=totalAmount,asc&page=2")
	s.Receive(req.Seq, Result[row]{TotalPages: 3})
	eff := s.ClearFilters()
	require.NotNil(t, eff.Fetch)
	assert.True(t, eff.WriteAddress)
	assert.Equal(t, "", eff.Address)
	assert.True(t, s.Query().Equal(orderSchema().Defaults()))
	assert.Empty(t, s.Input())
}

func TestOwnWritesEchoedInAnyOrder(t *testing.T) {
	tests := []struct {
		name  string
		order []int
	}{
		{name: "in order", order: []int{0, 1}},
		{name: "reversed", order: []int{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, req := started(t, "")
			_, ok := s.Receive(req.Seq, Result[row]{Items: rows(1), TotalPages: 10, TotalElements: 100})
			require.True(t, ok)

			first := s.NextPage()
			second := s.NextPage()
			require.True(t, first.WriteAddress)
			require.True(t, second.WriteAddress)
			assert.Equal(t, "page=2", first.Address)
			assert.Equal(t, "page=3", second.Address)

			writes := []string{first.Address, second.Address}
			for _, i := range tt.order {
				assert.True(t, s.Reconcile(writes[i]).Empty(), "echo of %q", writes[i])
			}
			assert.Equal(t, 2, s.Query().Page)
			assert.Equal(t, "page=3", s.Address())

			// Only the newest fetch is still answered.
			_, ok = s.Receive(first.Fetch.Seq, Result[row]{Items: rows(2), TotalPages: 10, Page: 1})
			assert.False(t, ok)
			_, ok = s.Receive(second.Fetch.Seq, Result[row]{Items: rows(3), TotalPages: 10, Page: 2})
			assert.True(t, ok)
			assert.Equal(t, rows(3), s.Result().Items)
		})
	}
}

func TestExternalChangeAfterOwnWriteEchoes(t *testing.T) {
	s, req := started(t, "")
	_, ok := s.Receive(req.Seq, Result[row]{TotalPages: 10, TotalElements: 100})
	require.True(t, ok)

	eff := s.NextPage()
	require.True(t, s.Reconcile(eff.Address).Empty())

	// Going back in history to the first page is not one of our writes.
	back := s.Reconcile("")
	require.NotNil(t, back.Fetch)
	assert.Equal(t, 0, back.Fetch.Query.Page)
	assert.Equal(t, 0, s.Query().Page)
}
