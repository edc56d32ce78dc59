// Package docs holds the long-form help shown by `freamarket docs`.
package docs

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed content/*.md
var contentFS embed.FS

// Topics lists the embedded help topics, sorted.
func Topics() []string {
	entries, err := fs.Glob(contentFS, "content/*.md")
	if err != nil {
		return []string{}
	}
	var topics []string
	for _, p := range entries {
		base := path.Base(p)
		topic := strings.TrimSuffix(base, path.Ext(base))
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// Get returns the markdown for topic (case-insensitive).
func Get(topic string) (string, bool) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", false
	}
	topic = strings.ToLower(topic)
	b, err := contentFS.ReadFile("content/" + topic + ".md")
	if err != nil {
		return "", false
	}
	return string(b), true
}
