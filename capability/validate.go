package capability

import (
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/feature"
	"github.com/teranos/mqbuild/logger"
	"github.com/teranos/mqbuild/mqver"
)

// ErrMinimumVersion is returned when an enabled feature needs a newer MQ client
// than the one installed.
var ErrMinimumVersion = errors.New("installed MQ client does not meet minimum version")

// Applicable returns the requirements that apply to the enabled set: declared
// requirements whose feature is enabled, followed by the implicit requirement
// of every enabled mqc_A_B_C_D feature. A malformed version feature is an error.
func (r *Registry) Applicable(enabled feature.Set) ([]Requirement, error) {
	var out []Requirement
	for _, req := range r.reqs {
		if enabled.Enabled(req.Feature) {
			out = append(out, req)
		}
	}
	for _, name := range enabled.Names() {
		v, err := mqver.ParseFeature(name)
		if errors.Is(err, mqver.ErrNotVersionFeature) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "feature %q", name)
		}
		out = append(out, Requirement{Feature: name, Min: v})
	}
	return out, nil
}

// Strictest returns the applicable requirement with the highest minimum
// version. The first declared wins ties. ok is false when nothing applies.
func (r *Registry) Strictest(enabled feature.Set) (req Requirement, ok bool, err error) {
	reqs, err := r.Applicable(enabled)
	if err != nil {
		return Requirement{}, false, err
	}
	for _, candidate := range reqs {
		if !ok || req.Min.Less(candidate.Min) {
			req, ok = candidate, true
		}
	}
	return req, ok, nil
}

// Validate fails when the strictest applicable requirement exceeds installed.
func (r *Registry) Validate(installed mqver.Version, enabled feature.Set) error {
	req, ok, err := r.Strictest(enabled)
	if err != nil || !ok {
		return err
	}
	if installed.AtLeast(req.Min) {
		r.logger.Debugw("Minimum version satisfied",
			logger.FieldFeature, req.Feature,
			logger.FieldRequired, req.Min.String(),
			logger.FieldInstalled, installed.String())
		return nil
	}
	err = errors.Wrapf(ErrMinimumVersion,
		"MQ client version %s does not meet the minimum requirement %s for feature %s",
		installed, req.Min, req.Feature)
	return errors.WithHintf(err,
		"install MQ client %s or later, or disable feature %q", req.Min, req.Feature)
}
