package ledger

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/soulspace-ledger/internal/model"
)

// Quote limits.
const (
	MaxQuoteContent = 1000
	MaxQuoteAuthor  = 200
	MaxQuoteTags    = 20
	MaxQuoteTag     = 50
)

// UnknownAuthor is stored when a quote arrives without an author.
const UnknownAuthor = "Unknown"

// FallbackExternalID marks records that hold the fallback quote.
const FallbackExternalID = "fallback"

// FallbackQuote is persisted whenever no usable quote can be drawn.
func FallbackQuote() model.Quote {
	return model.Quote{
		ExternalID: FallbackExternalID,
		Content:    "The present moment is the only time over which we have dominion.",
		Author:     "Thich Nhat Hanh",
		Tags:       []string{"mindfulness"},
	}
}

// NormalizeQuote trims q and checks it against the quote limits. Empty
// tags are dropped and a blank author becomes UnknownAuthor. Anything that
// still cannot be stored yields ErrInvalidQuote.
func NormalizeQuote(q model.Quote) (model.Quote, error) {
	out := model.Quote{
		ExternalID: strings.TrimSpace(q.ExternalID),
		Content:    strings.TrimSpace(q.Content),
		Author:     strings.TrimSpace(q.Author),
		Tags:       make([]string, 0, len(q.Tags)),
	}
	if out.Content == "" {
		return model.Quote{}, fmt.Errorf("%w: content is required", ErrInvalidQuote)
	}
	if n := utf8.RuneCountInString(out.Content); n > MaxQuoteContent {
		return model.Quote{}, fmt.Errorf("%w: content has %d characters, limit %d", ErrInvalidQuote, n, MaxQuoteContent)
	}
	if out.Author == "" {
		out.Author = UnknownAuthor
	}
	if utf8.RuneCountInString(out.Author) > MaxQuoteAuthor {
		return model.Quote{}, fmt.Errorf("%w: author longer than %d characters", ErrInvalidQuote, MaxQuoteAuthor)
	}
	if len(out.ExternalID) > 64 {
		return model.Quote{}, fmt.Errorf("%w: quote id too long", ErrInvalidQuote)
	}
	for _, tag := range q.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxQuoteTag {
			return model.Quote{}, fmt.Errorf("%w: tag longer than %d characters", ErrInvalidQuote, MaxQuoteTag)
		}
		out.Tags = append(out.Tags, tag)
	}
	if len(out.Tags) > MaxQuoteTags {
		return model.Quote{}, fmt.Errorf("%w: more than %d tags", ErrInvalidQuote, MaxQuoteTags)
	}
	return out, nil
}
