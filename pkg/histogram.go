package sspdiag

// Value-semantics binned containers. "Resizing" is always an explicit
// rebuild that copies old content into a new value, never an in-place
// mutation of the axis.

// Hist1D is a fixed-axis 1D histogram. Fills outside [XMin, XMax) are
// dropped.
type Hist1D struct {
	Name    string
	Bins    int
	XMin    float64
	XMax    float64
	Counts  []float64
	Entries int
}

func NewHist1D(name string, bins int, xmin, xmax float64) *Hist1D {
	return &Hist1D{
		Name:   name,
		Bins:   bins,
		XMin:   xmin,
		XMax:   xmax,
		Counts: make([]float64, bins),
	}
}

// FindBin returns the bin index for x, or -1 when x is out of range.
func (h *Hist1D) FindBin(x float64) int {
	if x < h.XMin || x >= h.XMax {
		return -1
	}
	bin := int((x - h.XMin) / (h.XMax - h.XMin) * float64(h.Bins))
	if bin >= h.Bins {
		bin = h.Bins - 1
	}
	return bin
}

// BinCenter returns the center of bin i.
func (h *Hist1D) BinCenter(i int) float64 {
	width := (h.XMax - h.XMin) / float64(h.Bins)
	return h.XMin + (float64(i)+0.5)*width
}

// BinWidth returns the uniform bin width.
func (h *Hist1D) BinWidth() float64 {
	return (h.XMax - h.XMin) / float64(h.Bins)
}

func (h *Hist1D) Fill(x float64) {
	h.FillW(x, 1)
}

func (h *Hist1D) FillW(x, w float64) {
	bin := h.FindBin(x)
	if bin < 0 {
		return
	}
	h.Counts[bin] += w
	h.Entries++
}

// Integral returns the sum of all bin contents.
func (h *Hist1D) Integral() float64 {
	var total float64
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Hist2D is a fixed-axis 2D histogram stored row-major by X bin.
type Hist2D struct {
	Name    string
	XBins   int
	XMin    float64
	XMax    float64
	YBins   int
	YMin    float64
	YMax    float64
	Counts  []float64
	Entries int
}

func NewHist2D(name string, xbins int, xmin, xmax float64, ybins int, ymin, ymax float64) *Hist2D {
	return &Hist2D{
		Name:   name,
		XBins:  xbins,
		XMin:   xmin,
		XMax:   xmax,
		YBins:  ybins,
		YMin:   ymin,
		YMax:   ymax,
		Counts: make([]float64, xbins*ybins),
	}
}

func (h *Hist2D) findBinX(x float64) int {
	if x < h.XMin || x >= h.XMax {
		return -1
	}
	bin := int((x - h.XMin) / (h.XMax - h.XMin) * float64(h.XBins))
	if bin >= h.XBins {
		bin = h.XBins - 1
	}
	return bin
}

func (h *Hist2D) findBinY(y float64) int {
	if y < h.YMin || y >= h.YMax {
		return -1
	}
	bin := int((y - h.YMin) / (h.YMax - h.YMin) * float64(h.YBins))
	if bin >= h.YBins {
		bin = h.YBins - 1
	}
	return bin
}

func (h *Hist2D) Fill(x, y float64) {
	h.FillW(x, y, 1)
}

func (h *Hist2D) FillW(x, y, w float64) {
	binX := h.findBinX(x)
	binY := h.findBinY(y)
	if binX < 0 || binY < 0 {
		return
	}
	h.Counts[binX*h.YBins+binY] += w
	h.Entries++
}

// BinContent returns the content of bin (ix, iy).
func (h *Hist2D) BinContent(ix, iy int) float64 {
	return h.Counts[ix*h.YBins+iy]
}

// SetBinContent overwrites the content of bin (ix, iy).
func (h *Hist2D) SetBinContent(ix, iy int, value float64) {
	h.Counts[ix*h.YBins+iy] = value
}

// XBinLowEdge returns the lower edge of X bin i.
func (h *Hist2D) XBinLowEdge(i int) float64 {
	width := (h.XMax - h.XMin) / float64(h.XBins)
	return h.XMin + float64(i)*width
}

// YBinCenter returns the center of Y bin i.
func (h *Hist2D) YBinCenter(i int) float64 {
	width := (h.YMax - h.YMin) / float64(h.YBins)
	return h.YMin + (float64(i)+0.5)*width
}

// Integral returns the sum of all bin contents.
func (h *Hist2D) Integral() float64 {
	var total float64
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// ProfileX reduces the 2D histogram to the mean Y value per X bin, computed
// from Y bin centers. X bins with no content yield 0.
func (h *Hist2D) ProfileX() []float64 {
	profile := make([]float64, h.XBins)
	for ix := 0; ix < h.XBins; ix++ {
		var sum, weight float64
		for iy := 0; iy < h.YBins; iy++ {
			content := h.BinContent(ix, iy)
			sum += content * h.YBinCenter(iy)
			weight += content
		}
		if weight > 0 {
			profile[ix] = sum / weight
		}
	}
	return profile
}
