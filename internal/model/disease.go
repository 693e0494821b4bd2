package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Disease is an arbovirus tracked by the surveillance API.
type Disease string

const (
	Dengue      Disease = "dengue"
	Chikungunya Disease = "chikungunya"
	Zika        Disease = "zika"
)

// Diseases lists every supported disease in display order.
var Diseases = []Disease{Dengue, Chikungunya, Zika}

// ParseDisease accepts a disease name in any case.
func ParseDisease(s string) (Disease, error) {
	d := Disease(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Dengue, Chikungunya, Zika:
		return d, nil
	}
	return "", eris.Wrapf(ErrInvalidDisease, "model: parse disease %q", s)
}

// Label returns the capitalized display name.
func (d Disease) Label() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// ModelKind selects the regression model family used for forecasting.
type ModelKind string

const (
	RandomForest     ModelKind = "random_forest"
	LinearRegression ModelKind = "linear_regression"
)

// ParseModelKind accepts the canonical names and a few common aliases.
func ParseModelKind(s string) (ModelKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "randomforest", "rf", "forest":
		return RandomForest, nil
	case "linearregression", "linear", "ols", "lr":
		return LinearRegression, nil
	}
	return "", eris.Wrapf(ErrInvalidModel, "model: parse model kind %q", s)
}

// Label returns the display name of the model family.
func (k ModelKind) Label() string {
	switch k {
	case RandomForest:
		return "Random Forest"
	case LinearRegression:
		return "Linear Regression"
	}
	return string(k)
}
