package classifier

import "testing"

func TestIsSearch(t *testing.T) {
	c := New(nil)

	tests := []struct {
		text string
		want bool
	}{
		{text: "Шукаю інвестора для стартапу", want: true},
		{text: "Шукаю веб-розробника для стартапу", want: true},
		{text: "privit", want: false},
		{text: "дякую", want: false},
		{text: "Дякую, ви дуже допомогли!", want: false},
		{text: "???", want: false},
		{text: "Привіт, шукаю маркетолога", want: false},
		{text: "коуч", want: true},
		{text: "хочу зустрітися з людьми з охорони здоров'я", want: true},
		{text: "котики", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := c.IsSearch(tt.text); got != tt.want {
				t.Fatalf("IsSearch(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsUnclear(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "clear business request", text: "Шукаю інвестора для стартапу", want: false},
		{name: "too short", text: "abc", want: true},
		{name: "short keyword wins over length", text: "юрист", want: false},
		{name: "business keyword beats filler", text: "шукаю дизайнера ??? ...", want: false},
		{name: "filler without keyword", text: "ну що можна знайти тут?", want: true},
		{name: "short without keyword", text: "хтось цікавий", want: true},
		{name: "long without keyword", text: "хочу познайомитися з людьми з охорони здоров'я", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsUnclear(tt.text); got != tt.want {
				t.Fatalf("IsUnclear(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestCustomKeywordsAreCaseInsensitive(t *testing.T) {
	c := New(&Config{
		Conversational:  []string{"  Ping  "},
		Business:        []string{"Golang"},
		Unclear:         []string{"HMM"},
		MinSearchLength: 3,
	})

	if c.IsSearch("PING me") {
		t.Fatal("custom conversational indicator must match case-insensitively")
	}
	if !c.IsSearch("need a GOLANG dev") {
		t.Fatal("custom business keyword must match case-insensitively")
	}
	if !c.IsUnclear("hmm, somebody nice") {
		t.Fatal("custom unclear indicator must match")
	}
	if c.IsUnclear("hmm, a golang person") {
		t.Fatal("business keyword must win over unclear indicator")
	}
}
