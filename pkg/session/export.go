package session

import (
	"fmt"
	"html"
	"strings"

	"github.com/promptdesk/promptdesk/pkg/imaging"
)

// FileSection groups the conversation items produced for one file of a batch
// run, labeled with the file's display name.
type FileSection struct {
	Name  string
	Items []Item
}

const exportStyle = `body { font-family: sans-serif; max-width: 800px; margin: 2em auto; color: #222; }
.chat-item, .conversation-item { border-bottom: 1px solid #ddd; padding: 0.75em 0; }
.chat-item img, .conversation-item img { max-width: 100%; }
.file-section h2 { color: #444; }
hr.separator { border: none; border-top: 2px solid #bbb; margin: 2em 0; }`

// ExportHTML renders the conversation log as a standalone HTML document.
// Text items are escaped; image items are embedded as data URLs.
func ExportHTML(title string, items []Item) string {
	var b strings.Builder
	writeHead(&b, title)
	for _, item := range items {
		b.WriteString(`<div class="chat-item">` + "\n")
		writeItem(&b, item)
		b.WriteString("</div>\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}

// ExportBatchHTML renders one section per processed file, separated the way
// the desktop transcript lays them out.
func ExportBatchHTML(title string, sections []FileSection) string {
	var b strings.Builder
	writeHead(&b, title)
	for _, section := range sections {
		fmt.Fprintf(&b, `<div class="file-section"><h2>%s</h2>`+"\n", html.EscapeString(section.Name))
		for _, item := range section.Items {
			b.WriteString(`<div class="conversation-item">` + "\n")
			writeItem(&b, item)
			b.WriteString("</div>\n")
		}
		b.WriteString("</div>\n<hr class=\"separator\">\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}

func writeHead(b *strings.Builder, title string) {
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(b, "<title>%s</title>\n", html.EscapeString(title))
	fmt.Fprintf(b, "<style>%s</style>\n</head>\n<body>\n", exportStyle)
	fmt.Fprintf(b, "<h1>%s</h1>\n", html.EscapeString(title))
}

func writeItem(b *strings.Builder, item Item) {
	switch item.Kind {
	case ItemImage:
		fmt.Fprintf(b, `<img src="data:%s;base64,%s" alt="Conversation Image">`+"\n",
			imaging.MediaType, item.Image)
	default:
		fmt.Fprintf(b, "<p>%s</p>\n", html.EscapeString(item.Text))
	}
}
