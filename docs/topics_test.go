package docs

import (
	"strings"
	"testing"
)

func TestGetTopic(t *testing.T) {
	content, err := GetTopic("readme")
	if err != nil {
		t.Fatalf("GetTopic(readme) error = %v", err)
	}
	if !strings.Contains(content, "investsync") {
		t.Error("readme topic does not mention investsync")
	}

	if _, err := GetTopic("nope"); err == nil {
		t.Error("GetTopic() found a topic that does not exist")
	}
}

func TestGetTopicsWildcard(t *testing.T) {
	all, err := GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics() error = %v", err)
	}
	if len(all) == 0 {
		t.Fatal("no topics embedded")
	}

	expanded, err := GetTopics("*")
	if err != nil {
		t.Fatalf("GetTopics(*) error = %v", err)
	}
	for _, topic := range all {
		content, err := GetTopic(topic)
		if err != nil {
			t.Fatalf("GetTopic(%q) error = %v", topic, err)
		}
		if !strings.Contains(expanded, content) {
			t.Errorf("GetTopics(*) missing topic %q", topic)
		}
	}
}
