package scanner

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StyleID is the id of the injected stylesheet.
const StyleID = "dictionary-styles"

var (
	styleSelector = cascadia.MustCompile("style#" + StyleID)
	headSelector  = cascadia.MustCompile("head")
)

// Stylesheet renders tagged spans as dashed-underlined terms with a
// definition tooltip on hover.
const Stylesheet = `
.dictionary-term {
  position: relative;
  display: inline-block;
  cursor: help;
  background-color: #f0f7ff;
  border-bottom: 1px dashed #2b5797;
  padding: 0 2px;
  font-weight: 400;
  transition: background-color 0.2s;
}

.dictionary-term:hover {
  background-color: #e3f0ff;
}

.dictionary-term:hover::after {
  content: attr(data-definition);
  position: absolute;
  bottom: 100%;
  left: 50%;
  transform: translateX(-50%);
  margin-bottom: 8px;
  padding: 8px 16px;
  background: #ffffff;
  color: #333333;
  font-size: 13px;
  font-weight: normal;
  line-height: 1.5;
  white-space: nowrap;
  border-radius: 4px;
  box-shadow: 0 4px 12px rgba(0, 0, 0, 0.15);
  z-index: 999999;
  border: 1px solid #e0e0e0;
  pointer-events: none;
  animation: dictionary-fade-in 0.2s ease;
}

.dictionary-term:hover::before {
  content: '';
  position: absolute;
  bottom: 100%;
  left: 50%;
  transform: translateX(-50%);
  margin-bottom: 4px;
  border-left: 6px solid transparent;
  border-right: 6px solid transparent;
  border-top: 6px solid #ffffff;
  filter: drop-shadow(0 2px 2px rgba(0,0,0,0.1));
  z-index: 1000000;
}

@keyframes dictionary-fade-in {
  from {
    opacity: 0;
    transform: translateX(-50%) translateY(5px);
  }
  to {
    opacity: 1;
    transform: translateX(-50%) translateY(0);
  }
}

.dictionary-term[data-definition-length="long"]:hover::after {
  white-space: normal;
  max-width: 300px;
  text-align: left;
}
`

// EnsureStyles adds the stylesheet to the head of doc unless it is already
// there. It reports whether it inserted anything.
func EnsureStyles(doc *html.Node) bool {
	if doc == nil || styleSelector.MatchFirst(doc) != nil {
		return false
	}

	head := headSelector.MatchFirst(doc)
	if head == nil {
		return false
	}

	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: StyleID}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: Stylesheet})
	head.AppendChild(style)
	return true
}
