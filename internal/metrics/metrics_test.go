package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordExtraction(t *testing.T) {
	before := testutil.ToFloat64(ExtractionTotal.WithLabelValues("fallback"))
	RecordExtraction("fallback")
	assert.Equal(t, before+1, testutil.ToFloat64(ExtractionTotal.WithLabelValues("fallback")))
}

func TestRecordNewPapers(t *testing.T) {
	before := testutil.ToFloat64(NewPapersTotal)
	RecordNewPapers(3)
	assert.Equal(t, before+3, testutil.ToFloat64(NewPapersTotal))
}

func TestRecordPublish(t *testing.T) {
	before := testutil.ToFloat64(PublishTotal.WithLabelValues("slack", "error"))
	RecordPublish("slack", "error")
	assert.Equal(t, before+1, testutil.ToFloat64(PublishTotal.WithLabelValues("slack", "error")))
}
