package regrid

// Unit conversion factors for CISM source fields: ice density of 910 kg/m3,
// mm/yr water-equivalent rates, and per-year velocities converted to SI.
const (
	secondsPerYear = 3600.0 * 24.0 * 365.0
	smbScale       = 910.0 / secondsPerYear / 1000.0
	perYear        = 1.0 / secondsPerYear
	celsiusToK     = 273.15
)

// CISMFields is the ordered registry mapping destination field names onto a
// CISM-layout source. With thicknessOnly set, only the thickness entry is
// returned (useful for setting up a cull mask).
func CISMFields(thicknessOnly bool) []FieldInfo {
	fields := []FieldInfo{
		{Name: "thickness", SourceName: "thk", ScaleFactor: 1, Grid: GridPrimary, ClampNonNegative: true},
	}
	if thicknessOnly {
		return fields
	}
	return append(fields, []FieldInfo{
		{Name: "bedTopography", SourceName: "topg", ScaleFactor: 1, Grid: GridPrimary},
		{Name: "sfcMassBal", SourceName: "smb", ScaleFactor: smbScale, Grid: GridPrimary},
		{Name: "sfcMassBalUncertainty", SourceName: "smb_std", ScaleFactor: smbScale, Grid: GridPrimary},
		{Name: "floatingBasalMassBal", SourceName: "subm", ScaleFactor: 910.0 / secondsPerYear, Grid: GridPrimary},
		{Name: "temperature", SourceName: "tempstag", ScaleFactor: 1, Offset: celsiusToK, Grid: GridPrimary, HasVerticalDim: true},
		{Name: "basalHeatFlux", SourceName: "bheatflx", ScaleFactor: 1, Grid: GridPrimary},
		{Name: "surfaceAirTemperature", SourceName: "artm", ScaleFactor: 1, Offset: celsiusToK, Grid: GridPrimary},
		{Name: "beta", SourceName: "beta", ScaleFactor: 1, Grid: GridStaggered},
		{Name: "observedSurfaceVelocityX", SourceName: "vx", ScaleFactor: perYear, Grid: GridPrimary},
		{Name: "observedSurfaceVelocityY", SourceName: "vy", ScaleFactor: perYear, Grid: GridPrimary},
		{Name: "observedSurfaceVelocityUncertainty", SourceName: "vErr", ScaleFactor: perYear, Grid: GridPrimary},
		{Name: "observedThicknessTendency", SourceName: "dHdt", ScaleFactor: perYear, Grid: GridPrimary},
		{Name: "observedThicknessTendencyUncertainty", SourceName: "dHdtErr", ScaleFactor: perYear, Grid: GridPrimary},
		{Name: "thicknessUncertainty", SourceName: "topgerr", ScaleFactor: 1, Grid: GridPrimary},
		{Name: "ismip6shelfMelt_basin", SourceName: "ismip6shelfMelt_basin", ScaleFactor: 1, Grid: GridPrimary},
		{Name: "ismip6shelfMelt_deltaT", SourceName: "ismip6shelfMelt_deltaT", ScaleFactor: 1, Grid: GridPrimary},
	}...)
}

// MPASFields is the ordered registry for an MPAS-layout source, where names
// and units already match the destination.
func MPASFields(thicknessOnly bool) []FieldInfo {
	fields := []FieldInfo{
		{Name: "thickness", SourceName: "thickness", ScaleFactor: 1, Grid: GridCell, ClampNonNegative: true},
	}
	if thicknessOnly {
		return fields
	}
	for _, name := range []string{
		"bedTopography",
		"sfcMassBal",
		"floatingBasalMassBal",
		"basalHeatFlux",
		"surfaceAirTemperature",
		"beta",
		"observedSurfaceVelocityX",
		"observedSurfaceVelocityY",
		"observedSurfaceVelocityUncertainty",
		"observedThicknessTendency",
		"observedThicknessTendencyUncertainty",
		"thicknessUncertainty",
		"basalFrictionFlux",
	} {
		fields = append(fields, FieldInfo{Name: name, SourceName: name, ScaleFactor: 1, Grid: GridCell})
	}
	fields = append(fields, FieldInfo{Name: "temperature", SourceName: "temperature", ScaleFactor: 1, Grid: GridCell, HasVerticalDim: true})
	return fields
}
