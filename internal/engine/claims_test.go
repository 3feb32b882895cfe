package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

func TestClaimTable_SingleWinnerUnderContention(t *testing.T) {
	table := NewClaimTable(paths.NewCanonicalizer(false))

	var wg sync.WaitGroup
	wins := make(chan string, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dst := "Index.HTML"
			if i%2 == 0 {
				dst = "index.html"
			}
			if _, won := table.Claim(dst, fmt.Sprintf("src-%02d", i)); won {
				wins <- dst
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
	require.Len(t, table.Claims(), 1)
	assert.Len(t, table.Rejections(), 15)
	assert.False(t, table.Claims()[0].Completed())
}

func TestClaimTable_CompleteAndRejectionDetails(t *testing.T) {
	table := NewClaimTable(paths.NewCanonicalizer(false))
	c, won := table.Claim("Guide/Intro.html", "a.md")
	require.True(t, won)
	table.Complete(c)

	winner, won := table.Claim("guide/intro.html", "b.md")
	assert.False(t, won)
	assert.Same(t, c, winner)
	assert.True(t, winner.Completed())

	_, won = table.Claim("guide/intro.html", "c.md")
	assert.False(t, won)

	assert.Equal(t, []Rejection{
		{Destination: "guide/intro.html", Source: "b.md", ClaimedBy: "a.md", CaseOnly: true},
		{Destination: "guide/intro.html", Source: "c.md", ClaimedBy: "a.md", CaseOnly: true},
	}, table.Rejections())
}
