package model

import "strings"

// Mood is one entry of the fixed mood vocabulary offered by the journal.
type Mood struct {
    Label string `json:"label"`
    Glyph string `json:"emoji"`
}

// Moods is the closed set of labels a journal entry may carry.
var Moods = []Mood{
    {Label: "Happy", Glyph: "😊"},
    {Label: "Peaceful", Glyph: "😌"},
    {Label: "Sad", Glyph: "😔"},
    {Label: "Anxious", Glyph: "😰"},
    {Label: "Tired", Glyph: "😴"},
    {Label: "Grateful", Glyph: "🤗"},
    {Label: "Frustrated", Glyph: "😤"},
    {Label: "Loved", Glyph: "🥰"},
    {Label: "Confused", Glyph: "😕"},
    {Label: "Hopeful", Glyph: "✨"},
}

// LookupMood finds a mood by label, ignoring case and surrounding space.
func LookupMood(label string) (Mood, bool) {
    label = strings.TrimSpace(label)
    for _, m := range Moods {
        if strings.EqualFold(m.Label, label) {
            return m, true
        }
    }
    return Mood{}, false
}
