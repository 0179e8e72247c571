package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bicep/income-sg/internal/model"
)

// DBF field order. Names are limited to 10 characters.
var fields = []shp.Field{
	shp.StringField("REGION", 40),
	shp.StringField("SUBZONE", 60),
	shp.FloatField("PRICE", 14, 2),
	shp.NumberField("DECILE", 2),
	shp.StringField("BRACKET", 24),
	shp.FloatField("DENSITY", 14, 2),
	shp.FloatField("INCOME", 14, 2),
}

// WriteShapefile writes one POINT per record to path (.shp, with .shx and
// .dbf alongside).
func WriteShapefile(path string, records []model.IncomeRecord) error {
	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, ".shp") {
		return eris.Errorf("export: shapefile path must end in .shp: %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "export: create dir for %s", path)
		}
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	if err := writeShapes(w, records); err != nil {
		w.Close()
		return err
	}
	w.Close()

	// go-shp names the attribute file "<base>dbf" without the dot.
	base := strings.TrimSuffix(path, ext)
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrapf(err, "export: rename attribute file for %s", path)
	}

	zap.L().Info("wrote shapefile", zap.String("path", path), zap.Int("records", len(records)))
	return nil
}

func writeShapes(w *shp.Writer, records []model.IncomeRecord) error {
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "export: set fields")
	}
	for _, r := range records {
		n := int(w.Write(&shp.Point{X: r.Lon, Y: r.Lat}))
		attrs := []any{r.Region, r.Subzone, r.Price, r.Decile, r.Bracket, r.Density, r.Income}
		for i, v := range attrs {
			if err := w.WriteAttribute(n, i, v); err != nil {
				return eris.Wrapf(err, "export: write attribute %s of record %d", fields[i].String(), n)
			}
		}
	}
	return nil
}
