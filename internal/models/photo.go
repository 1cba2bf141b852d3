package models

// Photo is an image picked for upload (emergency attachment or profile photo)
type Photo struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the photo size in bytes
func (p *Photo) Size() int {
	return len(p.Data)
}
