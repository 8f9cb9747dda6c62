package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/mnemohq/mnemo/internal/deck"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	tagsPrefix     = "T:"
)

type section int

const (
	seeking section = iota
	inQuestion
	inAnswer
	inContext
)

// ParseFile reads the file at path and extracts all cards.
func ParseFile(path string) ([]deck.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse extracts cards from r. Cards are sequences of Q:/A:/C: blocks, each
// block running until the next marker; a T: line carries comma-separated
// tags. A "---" line or a new Q: marker ends the current card. Cards
// without a question are dropped.
func Parse(r io.Reader) ([]deck.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []deck.Card
	var current deck.Card
	var block []string
	state := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch state {
		case inQuestion:
			current.Question = content
		case inAnswer:
			current.Answer = content
		case inContext:
			current.Context = content
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Question != "" {
			cards = append(cards, current)
		}
		current = deck.Card{}
		state = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "---" {
			finishCard()
			continue
		}

		if strings.HasPrefix(line, tagsPrefix) {
			flushBlock()
			state = seeking
			for _, tag := range strings.Split(markerContent(line, tagsPrefix), ",") {
				if t := strings.TrimSpace(tag); t != "" {
					current.Tags = append(current.Tags, t)
				}
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, questionPrefix):
			flushBlock()
			if state != seeking || current.Question != "" {
				// A new question always starts a new card.
				finishCard()
			}
			state = inQuestion
			block = append(block, markerContent(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix):
			flushBlock()
			state = inAnswer
			block = append(block, markerContent(line, answerPrefix))
		case strings.HasPrefix(line, contextPrefix):
			flushBlock()
			state = inContext
			block = append(block, markerContent(line, contextPrefix))
		default:
			if state != seeking {
				block = append(block, line)
			}
		}
	}

	finishCard() // the last card in the file has no trailing separator

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

// markerContent strips the marker prefix and one optional leading space.
func markerContent(line, prefix string) string {
	content := line[len(prefix):]
	return strings.TrimPrefix(content, " ")
}
