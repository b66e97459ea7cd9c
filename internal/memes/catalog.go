package memes

import (
	"math/rand"
	"slices"
)

type Catalog struct {
	templates []Template
}

func NewCatalog(templates []Template) *Catalog {
	return &Catalog{templates: slices.Clone(templates)}
}

func (c *Catalog) Get(id string) (Template, bool) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

func (c *Catalog) List() []Template {
	return slices.Clone(c.templates)
}

func (c *Catalog) Len() int {
	return len(c.templates)
}

// Random picks a template uniformly.
func (c *Catalog) Random() Template {
	return c.templates[rand.Intn(len(c.templates))]
}

// RandomExcept picks a template other than id when the catalog has one.
func (c *Catalog) RandomExcept(id string) Template {
	if len(c.templates) < 2 {
		return c.Random()
	}
	for {
		if t := c.Random(); t.ID != id {
			return t
		}
	}
}
