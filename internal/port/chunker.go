package port

// Chunker splits raw document text into ordered chunk texts.
type Chunker interface {
	Chunk(text string) ([]string, error)
}
