// Package reactions attaches per-user votes to stored links and renders the
// chat-wide reaction summary.
package reactions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/linkpatrol/linkpatrol/internal/store"
)

// Aggregator delegates vote recording to the link store and groups votes by
// URL for reporting.
type Aggregator struct {
	links *store.LinkStore
}

// NewAggregator creates an aggregator over the given link store.
func NewAggregator(links *store.LinkStore) *Aggregator {
	return &Aggregator{links: links}
}

var kindLabels = map[store.ReactionKind]string{
	store.ReactionLike:     "❤️ Likes",
	store.ReactionThumbsUp: "👍 Thumbs up",
}

// React records a vote on url. Returns false when no link record exists.
func (a *Aggregator) React(ctx context.Context, chatID int64, url string, kind store.ReactionKind, userID int64, displayName string) (bool, error) {
	return a.links.AddReaction(ctx, chatID, url, kind, userID, displayName)
}

// Summarize renders the reaction report for a chat. The degraded-mode, empty
// and no-reactions cases each produce a distinct message.
func (a *Aggregator) Summarize(ctx context.Context, chatID int64) (string, error) {
	if !a.links.Available() {
		return "Reaction stats are unavailable: no persistent storage configured.", nil
	}
	records, err := a.links.ListAll(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "No links stored in this chat yet.", nil
	}

	urls := make([]string, 0, len(records))
	for url := range records {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	var sections []string
	for _, url := range urls {
		record := records[url]
		var lines []string
		for _, kind := range store.ReactionKinds {
			voters := record.Voters(kind)
			if len(voters) == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %d (%s)", kindLabels[kind], len(voters), joinVoters(voters)))
		}
		if len(lines) > 0 {
			sections = append(sections, "🔗 "+url+"\n"+strings.Join(lines, "\n"))
		}
	}
	if len(sections) == 0 {
		return "Links are stored, but nobody has reacted to them yet.", nil
	}
	return "📊 Reaction stats:\n\n" + strings.Join(sections, "\n\n"), nil
}

// joinVoters renders display names in a stable order, falling back to id<N>
// when no display name is known.
func joinVoters(voters map[string]string) string {
	names := make([]string, 0, len(voters))
	for userID, displayName := range voters {
		if displayName == "" {
			names = append(names, "id"+userID)
		} else {
			names = append(names, "@"+displayName)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
