package analyzer

import (
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// Rec. 601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

var maxProximity = 255 * math.Sqrt(3)

// metricsCalculator implements MetricsCalculator with row-strip parallelism
// and Gonum statistics.
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

type stripSums struct {
	r, g, b, sat, grad float64
}

// CalculateImageStats computes per-image statistics. A zero-area image
// yields zero values.
func (mc *metricsCalculator) CalculateImageStats(img *image.NRGBA) ImageStats {
	if img == nil {
		return ImageStats{}
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// Handle empty images
	if width == 0 || height == 0 {
		return ImageStats{}
	}

	luma := mc.getSlice(width * height)
	defer mc.slicePool.Put(luma[:0])
	fillLuma(img, luma)

	// Strip results are summed in strip order so repeated runs agree bit for bit.
	strips := splitRows(height)
	sums := make([]stripSums, len(strips))
	var wg sync.WaitGroup
	for i, s := range strips {
		wg.Add(1)
		go func(i, startY, endY int) {
			defer wg.Done()
			var acc stripSums
			for y := startY; y < endY; y++ {
				row := rowPix(img, y)
				for x := 0; x < width; x++ {
					r := float64(row[x*4])
					g := float64(row[x*4+1])
					b := float64(row[x*4+2])
					acc.r += r
					acc.g += g
					acc.b += b

					_, sat, _ := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Hsv()
					acc.sat += sat
					acc.grad += gradientAt(luma, width, height, x, y)
				}
			}
			sums[i] = acc
		}(i, s[0], s[1])
	}
	wg.Wait()

	var total stripSums
	for _, s := range sums {
		total.r += s.r
		total.g += s.g
		total.b += s.b
		total.sat += s.sat
		total.grad += s.grad
	}

	n := float64(width * height)
	mean, variance := stat.PopMeanVariance(luma, nil)
	stats := ImageStats{
		Pixels:     width * height,
		MeanR:      total.r / n,
		MeanG:      total.g / n,
		MeanB:      total.b / n,
		Saturation: total.sat / n,
		Brightness: mean,
		Variance:   variance,
		Contrast:   math.Sqrt(variance),
		Sharpness:  total.grad / n,
	}
	stats.Proximity = math.Sqrt(stats.MeanR*stats.MeanR + stats.MeanG*stats.MeanG + stats.MeanB*stats.MeanB)
	return stats
}

// CalculatePairStats computes linear (MAE, RMSE) and perceptual (CIEDE2000)
// differences. Mismatched or empty inputs yield zero values.
func (mc *metricsCalculator) CalculatePairStats(first, second *image.NRGBA) PairStats {
	if first == nil || second == nil {
		return PairStats{}
	}
	bounds := first.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 || second.Bounds().Size() != bounds.Size() {
		return PairStats{}
	}

	type pairSums struct {
		abs, sq, deltaE, maxDeltaE float64
	}

	strips := splitRows(height)
	sums := make([]pairSums, len(strips))
	var wg sync.WaitGroup
	for i, s := range strips {
		wg.Add(1)
		go func(i, startY, endY int) {
			defer wg.Done()
			var acc pairSums
			for y := startY; y < endY; y++ {
				ra := rowPix(first, y)
				rb := rowPix(second, y)
				for x := 0; x < width; x++ {
					for c := 0; c < 3; c++ {
						d := float64(ra[x*4+c]) - float64(rb[x*4+c])
						acc.abs += math.Abs(d)
						acc.sq += d * d
					}
					ca := colorful.Color{R: float64(ra[x*4]) / 255, G: float64(ra[x*4+1]) / 255, B: float64(ra[x*4+2]) / 255}
					cb := colorful.Color{R: float64(rb[x*4]) / 255, G: float64(rb[x*4+1]) / 255, B: float64(rb[x*4+2]) / 255}
					// go-colorful reports CIEDE2000 on a 0..1 lightness scale.
					de := ca.DistanceCIEDE2000(cb) * 100
					acc.deltaE += de
					acc.maxDeltaE = math.Max(acc.maxDeltaE, de)
				}
			}
			sums[i] = acc
		}(i, s[0], s[1])
	}
	wg.Wait()

	var total pairSums
	for _, s := range sums {
		total.abs += s.abs
		total.sq += s.sq
		total.deltaE += s.deltaE
		total.maxDeltaE = math.Max(total.maxDeltaE, s.maxDeltaE)
	}

	pixels := float64(width * height)
	samples := pixels * 3
	return PairStats{
		Pixels:    width * height,
		MAE:       total.abs / samples,
		RMSE:      math.Sqrt(total.sq / samples),
		DeltaE:    total.deltaE / pixels,
		MaxDeltaE: total.maxDeltaE,
	}
}

func (mc *metricsCalculator) getSlice(n int) []float64 {
	data := mc.slicePool.Get().([]float64)
	if cap(data) < n {
		data = make([]float64, 0, n)
	}
	return data[:n]
}

// rowPix returns the pixel bytes of row y, counted from the top of the bounds.
func rowPix(img *image.NRGBA, y int) []uint8 {
	b := img.Bounds()
	off := img.PixOffset(b.Min.X, b.Min.Y+y)
	return img.Pix[off : off+b.Dx()*4]
}

// fillLuma writes the luma of every pixel into dst in row-major order.
func fillLuma(img *image.NRGBA, dst []float64) {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < height; y++ {
		row := rowPix(img, y)
		for x := 0; x < width; x++ {
			dst[y*width+x] = lumaR*float64(row[x*4]) + lumaG*float64(row[x*4+1]) + lumaB*float64(row[x*4+2])
		}
	}
}

// gradientAt is the forward-difference gradient magnitude at (x, y). A
// direction without a neighbour contributes 0.
func gradientAt(luma []float64, width, height, x, y int) float64 {
	cur := luma[y*width+x]
	var gx, gy float64
	if x+1 < width {
		gx = luma[y*width+x+1] - cur
	}
	if y+1 < height {
		gy = luma[(y+1)*width+x] - cur
	}
	return math.Sqrt(gx*gx + gy*gy)
}

// splitRows divides height rows into contiguous [start, end) strips, one per CPU.
func splitRows(height int) [][2]int {
	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	strips := make([][2]int, 0, numWorkers)
	for start := 0; start < height; start += rowsPerWorker {
		end := start + rowsPerWorker
		if end > height {
			end = height
		}
		strips = append(strips, [2]int{start, end})
	}
	return strips
}
