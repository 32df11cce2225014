// Package session holds the caller-owned conversation state: the append-only
// chat history log and its HTML transcript export. The core pipeline only ever
// reads this state; it never mutates or owns it.
package session

import "github.com/promptdesk/promptdesk/pkg/imaging"

// ItemKind tags a history entry as text or image.
type ItemKind int

const (
	ItemText ItemKind = iota
	ItemImage
)

// Item is one entry of the conversation log.
type Item struct {
	Kind  ItemKind
	Text  string
	Image imaging.Image
}

// History is an ordered, append-only log of conversation items. It grows
// during a session and is cleared as a whole on user-initiated reset.
type History struct {
	items []Item
}

func (h *History) AddText(text string) {
	h.items = append(h.items, Item{Kind: ItemText, Text: text})
}

func (h *History) AddImage(img imaging.Image) {
	h.items = append(h.items, Item{Kind: ItemImage, Image: img})
}

// Items returns the log for read-only traversal. The returned slice is a
// copy; appends by the owner do not race with readers holding it.
func (h *History) Items() []Item {
	out := make([]Item, len(h.items))
	copy(out, h.items)
	return out
}

func (h *History) Len() int { return len(h.items) }

// Reset clears the whole log.
func (h *History) Reset() { h.items = nil }
