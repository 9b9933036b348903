package strategies

// Spec is the flat parameter bag a strategy is built from. Fields not used
// by the named variant are ignored; variant defaults fill the zero values.
type Spec struct {
	Name string `yaml:"name" json:"name"`

	// Deploy is the fraction of portfolio value placed into ranges on a
	// rebalance; the rest stays in quote cash. Default 0.95, except the
	// baselines which deploy everything.
	Deploy float64 `yaml:"deploy" json:"deploy,omitempty"`

	// WidthPct is the symmetric range width as percent of the center.
	WidthPct float64 `yaml:"width_pct" json:"width_pct,omitempty"`
	// Placement picks the classic centering mode: center, recenter or
	// dynamic.
	Placement string `yaml:"placement" json:"placement,omitempty"`

	// Lookback is the indicator window for the channel variants.
	Lookback int `yaml:"lookback" json:"lookback,omitempty"`
	// K is the standard deviation multiplier for bollinger.
	K float64 `yaml:"k" json:"k,omitempty"`
	// Multiplier scales the ATR for keltner and the channel span for
	// donchian.
	Multiplier float64 `yaml:"multiplier" json:"multiplier,omitempty"`

	// Peg options for the stable variant.
	PegMethod   string `yaml:"peg_method" json:"peg_method,omitempty"`
	PegLookback int    `yaml:"peg_lookback" json:"peg_lookback,omitempty"`

	// Curve options for multi-bin placement.
	Curve       string  `yaml:"curve" json:"curve,omitempty"`
	Bins        int     `yaml:"bins" json:"bins,omitempty"`
	CurveStdDev float64 `yaml:"curve_std_dev" json:"curve_std_dev,omitempty"`
	CurveSlope  float64 `yaml:"curve_slope" json:"curve_slope,omitempty"`

	// Fluid options.
	IdealRatio         float64 `yaml:"ideal_ratio" json:"ideal_ratio,omitempty"`
	AcceptableRatio    float64 `yaml:"acceptable_ratio" json:"acceptable_ratio,omitempty"`
	RebalanceThreshold float64 `yaml:"rebalance_threshold" json:"rebalance_threshold,omitempty"`
	Sprawl             string  `yaml:"sprawl" json:"sprawl,omitempty"`

	// Volatility sizing options for dynamic_vol.
	VolEstimator string  `yaml:"vol_estimator" json:"vol_estimator,omitempty"`
	VolWindow    int     `yaml:"vol_window" json:"vol_window,omitempty"`
	KWidth       float64 `yaml:"k_width" json:"k_width,omitempty"`
	AnnualFactor float64 `yaml:"annual_factor" json:"annual_factor,omitempty"`
	MinWidthPct  float64 `yaml:"min_width_pct" json:"min_width_pct,omitempty"`
	MaxWidthPct  float64 `yaml:"max_width_pct" json:"max_width_pct,omitempty"`

	// Inventory sizing options for dynamic_inventory.
	SkewThresholdPct float64 `yaml:"skew_threshold_pct" json:"skew_threshold_pct,omitempty"`
	TargetSkew       float64 `yaml:"target_skew" json:"target_skew,omitempty"`
	BaseWidthPct     float64 `yaml:"base_width_pct" json:"base_width_pct,omitempty"`
	FeeDensityWindow int     `yaml:"fee_density_window" json:"fee_density_window,omitempty"`
	NormVolume       float64 `yaml:"norm_volume" json:"norm_volume,omitempty"`
}

func (s Spec) deploy(fallback float64) float64 {
	if s.Deploy > 0 && s.Deploy <= 1 {
		return s.Deploy
	}
	return fallback
}
