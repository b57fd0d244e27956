package archive

import "encoding/json"

// The metadata read API returns single-valued fields as either a string or a
// one-element array depending on the item's history; multi absorbs both.
type multi []string

func (m *multi) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = multi{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*m = multi(list)
	return nil
}

func (m multi) first() string {
	if len(m) == 0 {
		return ""
	}
	return m[0]
}

// itemMetadata is the wire shape of a stored record.
type itemMetadata struct {
	Title       multi `json:"title"`
	Mediatype   multi `json:"mediatype"`
	Creator     multi `json:"creator"`
	Description multi `json:"description"`
	Date        multi `json:"date"`
	Subject     multi `json:"subject"`
	Language    multi `json:"language"`
	Game        multi `json:"game"`
}

func (im *itemMetadata) toMetadata() *Metadata {
	return &Metadata{
		Title:       im.Title.first(),
		Mediatype:   im.Mediatype.first(),
		Creator:     im.Creator.first(),
		Description: im.Description.first(),
		Date:        im.Date.first(),
		Subject:     []string(im.Subject),
		Language:    im.Language.first(),
		Game:        []string(im.Game),
	}
}
