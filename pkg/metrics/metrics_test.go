package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	assert.Equal(t, prometheus.DefaultRegisterer, GetRegisterer())

	reg := prometheus.NewRegistry()
	Register(reg)
	RegisterLoggingMetrics(reg)
	assert.Equal(t, prometheus.Registerer(reg), GetRegisterer())

	DecodeTotal.WithLabelValues(SuccessLabel).Inc()
	DecodeWarnings.WithLabelValues("encoding").Add(2)
	DecodeBytes.Observe(1024)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := lo.Map(families, func(mf *dto.MetricFamily, _ int) string { return mf.GetName() })
	assert.Contains(t, names, "rxdata_decode_total")
	assert.Contains(t, names, "rxdata_decode_warnings_total")
	assert.Contains(t, names, "rxdata_decode_bytes")

	for _, mf := range families {
		if mf.GetName() == "rxdata_decode_warnings_total" {
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, float64(2), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
