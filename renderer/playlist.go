package renderer

import "errors"

var ErrEmptyPlaylist = errors.New("renderer: playlist is empty")

// Playlist is the ordered list of shader description files the viewer cycles
// through. Switch requests are queued and taken at the next frame boundary.
type Playlist struct {
	files   []string
	index   int
	request int
	pending bool
}

func NewPlaylist(files []string) (*Playlist, error) {
	if len(files) == 0 {
		return nil, ErrEmptyPlaylist
	}
	return &Playlist{files: files}, nil
}

func (p *Playlist) Len() int        { return len(p.files) }
func (p *Playlist) Index() int      { return p.index }
func (p *Playlist) Current() string { return p.files[p.index] }

// File returns the path of entry i.
func (p *Playlist) File(i int) string { return p.files[i] }

func (p *Playlist) Prev() int { return (p.index - 1 + len(p.files)) % len(p.files) }
func (p *Playlist) Next() int { return (p.index + 1) % len(p.files) }

// Random returns a pseudo random entry derived from the current one.
func (p *Playlist) Random() int { return (p.index*48271 + 23) % len(p.files) }

// Request queues a switch to entry i. A later request replaces an earlier one.
func (p *Playlist) Request(i int) {
	p.request = i
	p.pending = true
}

// TakeRequest returns and clears the queued switch, if it names another entry.
func (p *Playlist) TakeRequest() (int, bool) {
	if !p.pending {
		return 0, false
	}
	p.pending = false
	if p.request == p.index {
		return 0, false
	}
	return p.request, true
}

// Select makes entry i current.
func (p *Playlist) Select(i int) { p.index = i }
