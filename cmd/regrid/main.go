package main

import (
	"fmt"
	"os"

	regrid "github.com/flywave/go-regrid"
	vec2d "github.com/flywave/go3d/float64/vec2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	sourceFile      string
	destinationFile string
	methodFlag      string
	weightFile      string
	thicknessOnly   bool
	timeStart       int
	timeEnd         int
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "regrid",
	Short: "Interpolate ice sheet fields from a source file onto an MPAS land ice mesh",
	Long: `regrid reads fields from a structured (CISM) or unstructured (MPAS)
source file and interpolates them horizontally and vertically onto the
cell centers of an existing MPAS land ice mesh, writing the results in
place.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&sourceFile, "source", "s", "cism.nc", "source file to read fields from")
	rootCmd.Flags().StringVarP(&destinationFile, "destination", "d", "landice_grid.nc", "destination mesh file, modified in place")
	rootCmd.Flags().StringVarP(&methodFlag, "method", "m", "b", "interpolation method: b (bilinear), d (barycentric), n (nearest), e (external weight file)")
	rootCmd.Flags().StringVarP(&weightFile, "weight", "w", "", "weight file for method e")
	rootCmd.Flags().BoolVarP(&thicknessOnly, "thickness-only", "t", false, "only interpolate thickness")
	rootCmd.Flags().IntVar(&timeStart, "timestart", 0, "first source time level to copy")
	rootCmd.Flags().IntVar(&timeEnd, "timeend", 0, "last source time level to copy")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report value ranges while interpolating")
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	method, err := regrid.ParseMethod(methodFlag)
	if err != nil {
		return err
	}
	if timeEnd < timeStart {
		return fmt.Errorf("timeend %d is before timestart %d", timeEnd, timeStart)
	}

	dst, err := regrid.OpenDestination(destinationFile)
	if err != nil {
		return err
	}
	defer dst.Close()
	dstPoints, err := dst.CellCenters()
	if err != nil {
		return err
	}
	log.Infof("destination mesh %s has %d cells", destinationFile, len(dstPoints))

	src, err := regrid.OpenSource(sourceFile)
	if err != nil {
		return err
	}
	defer src.Close()

	r := regrid.NewRegridder(method, dstPoints)
	if method == regrid.SparseMatrix {
		if weightFile == "" {
			return fmt.Errorf("method e requires a weight file (-w)")
		}
		w, err := regrid.ReadSparseWeights(weightFile)
		if err != nil {
			return err
		}
		r.SetSparseWeights(w)
	}

	var fields []regrid.FieldInfo
	switch src.Layout {
	case regrid.LayoutCISM:
		fields = regrid.CISMFields(thicknessOnly)
		if err := addStructured(r, src, regrid.GridPrimary, "x1", "y1", dstPoints); err != nil {
			return err
		}
		if !thicknessOnly && src.HasVariable("x0") {
			if err := addStructured(r, src, regrid.GridStaggered, "x0", "y0", dstPoints); err != nil {
				return err
			}
		}
	case regrid.LayoutMPAS:
		if method != regrid.Barycentric {
			return fmt.Errorf("an unstructured source supports only the barycentric method (d)")
		}
		fields = regrid.MPASFields(thicknessOnly)
		cells, err := src.CellCenters()
		if err != nil {
			return err
		}
		reportOverlap(regrid.PointSetExtent(cells), dstPoints)
		if err := r.AddPointTopology(regrid.GridCell, cells); err != nil {
			return err
		}
	}

	if err := r.Process(src, dst, fields, timeStart, timeEnd); err != nil {
		return err
	}
	log.Info("done")
	return nil
}

func addStructured(r *regrid.Regridder, src *regrid.NetCDFSource, gt regrid.GridType, xName, yName string, dstPoints []vec2d.T) error {
	x, err := src.Axis(xName)
	if err != nil {
		return err
	}
	y, err := src.Axis(yName)
	if err != nil {
		return err
	}
	grid, err := regrid.NewStructuredGrid(x, y)
	if err != nil {
		return err
	}
	if gt == regrid.GridPrimary {
		reportOverlap(grid.Extent(), dstPoints)
	}
	return r.AddStructuredTopology(gt, grid)
}

// reportOverlap compares the source and destination footprints. Destination
// cells outside the source extent are filled by extrapolation or nearest
// values, so a mismatch is worth a warning up front.
func reportOverlap(src vec2d.Rect, dstPoints []vec2d.T) {
	dst := regrid.PointSetExtent(dstPoints)
	log.Infof("source extent: x [%v, %v], y [%v, %v]", src.Min[0], src.Max[0], src.Min[1], src.Max[1])
	log.Infof("destination extent: x [%v, %v], y [%v, %v]", dst.Min[0], dst.Max[0], dst.Min[1], dst.Max[1])
	if dst.Min[0] < src.Min[0] || dst.Max[0] > src.Max[0] ||
		dst.Min[1] < src.Min[1] || dst.Max[1] > src.Max[1] {
		log.Warn("the destination mesh extends beyond the source extent; values outside it are extrapolated")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
