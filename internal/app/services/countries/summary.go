package countries

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/worldpulse/country_service/internal/app/domain/country"
	"github.com/worldpulse/country_service/pkg/logger"
)

// SummaryImageName is the well-known file name of the rendered summary.
const SummaryImageName = "summary.png"

const (
	imageWidth  = 800
	imageHeight = 600
	topCount    = 5
)

// ImageRenderer writes a fixed-size PNG leaderboard of the top countries by
// estimated GDP into a cache directory, overwriting any prior file.
type ImageRenderer struct {
	dir string
	log *logger.Logger
}

// NewImageRenderer creates a renderer targeting the given cache directory.
func NewImageRenderer(dir string, log *logger.Logger) *ImageRenderer {
	if log == nil {
		log = logger.NewDefault("summary-renderer")
	}
	return &ImageRenderer{dir: dir, log: log}
}

// ImagePath returns the path the summary is written to.
func (r *ImageRenderer) ImagePath() string {
	return filepath.Join(r.dir, SummaryImageName)
}

// Render draws the summary and replaces the cached file atomically. Callers
// treat any returned error as advisory; it never aborts a refresh.
func (r *ImageRenderer) Render(rows []country.Country, total int, refreshedAt time.Time) error {
	top := topByGDP(rows, topCount)

	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	black := color.RGBA{A: 255}
	blue := color.RGBA{B: 200, A: 255}
	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}

	y := 60
	drawText(img, 50, y, "Country Data Summary", black)
	y += 60
	drawText(img, 50, y, fmt.Sprintf("Total Countries: %d", total), black)
	y += 60
	drawText(img, 50, y, "Top 5 Countries by Estimated GDP:", black)
	y += 40
	for i, row := range top {
		drawText(img, 70, y, fmt.Sprintf("%d. %s: $%s", i+1, row.Name, formatAmount(*row.EstimatedGDP)), blue)
		y += 35
	}
	y += 40
	drawText(img, 50, y, "Last Refreshed: "+refreshedAt.Format("2006-01-02 15:04:05 UTC"), gray)

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, "summary-*.png")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp image: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.ImagePath()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace image: %w", err)
	}

	r.log.WithField("path", r.ImagePath()).Info("summary image written")
	return nil
}

// topByGDP selects up to n rows with a positive estimated GDP, highest
// first.
func topByGDP(rows []country.Country, n int) []country.Country {
	ranked := make([]country.Country, 0, len(rows))
	for _, row := range rows {
		if row.EstimatedGDP != nil && *row.EstimatedGDP > 0 {
			ranked = append(ranked, row)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].EstimatedGDP > *ranked[j].EstimatedGDP
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func drawText(img *image.RGBA, x, y int, text string, c color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// formatAmount renders a float with thousands separators and two decimals,
// e.g. 1234567.891 -> "1,234,567.89".
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}
