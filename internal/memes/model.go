package memes

type Template struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	CaptionFields int    `json:"captionFields"`
}

var Defaults = []Template{
	{ID: "drake", Name: "Drake Hotline Bling", URL: "/memes/drake.jpg", CaptionFields: 2},
	{ID: "toy-story-meme", Name: "Toy Story Everywhere", URL: "/memes/toy-story.jpg", CaptionFields: 1},
	{ID: "fry1", Name: "Futurama Fry", URL: "/memes/fry1.jpg", CaptionFields: 3},
	{ID: "two-buttons", Name: "Two Buttons", URL: "/memes/twobuttons.jpg", CaptionFields: 2},
	{ID: "blackdude", Name: "Confused Guy", URL: "/memes/blackdude.jpg", CaptionFields: 2},
}
