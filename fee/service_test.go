package fee

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zllovesuki/rmc-fees/proration"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Error *struct {
		Message  string          `json:"message"`
		Messages []string        `json:"messages"`
		Result   json.RawMessage `json:"result"`
	} `json:"error"`
	Result json.RawMessage `json:"result"`
}

func serve(t *testing.T, f *fixture, method, target string) (int, envelope) {
	svc, err := NewService(ServiceOptions{
		Creator: f.creator,
		Logger:  f.creator.Logger,
	})
	require.NoError(t, err)

	root := chi.NewRouter()
	root.Mount("/{id}/subscription-fee", svc.Router())

	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestNewServiceRequiresOptions(t *testing.T) {
	_, err := NewService(ServiceOptions{})
	assert.Error(t, err)
}

func TestServiceCreatesFee(t *testing.T) {
	f := newFixture(t)
	f.insertPlan(t, starterPlan())
	f.subscribe(t, "sub_1", "starter")
	f.invoice(t, "inv_1", "sub_1", day(2024, 1, 10), day(2024, 1, 10))

	code, body := serve(t, f, http.MethodPost, "/inv_1/subscription-fee")
	require.Equal(t, http.StatusOK, code)
	require.Nil(t, body.Error)

	var result Result
	require.NoError(t, json.Unmarshal(body.Result, &result))
	require.NotNil(t, result.Fee)
	assert.False(t, result.AlreadyBilled)
	assert.Equal(t, int64(2032), result.Fee.AmountCents)
	assert.Equal(t, int64(407), result.Fee.VATAmountCents)

	code, body = serve(t, f, http.MethodPost, "/inv_1/subscription-fee")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body.Result, &result))
	assert.True(t, result.AlreadyBilled)
}

func TestServicePreview(t *testing.T) {
	f := newFixture(t)
	f.insertPlan(t, starterPlan())
	f.subscribe(t, "sub_1", "starter")
	f.invoice(t, "inv_1", "sub_1", day(2024, 1, 10), day(2024, 1, 10))

	code, body := serve(t, f, http.MethodGet, "/inv_1/subscription-fee/preview")
	require.Equal(t, http.StatusOK, code)

	var detail proration.Detail
	require.NoError(t, json.Unmarshal(body.Result, &detail))
	assert.True(t, detail.Prorated)
	assert.Equal(t, int64(21), detail.DaysToBill)
	assert.Equal(t, int64(2032), detail.AmountCents)
}

func TestServiceErrors(t *testing.T) {
	f := newFixture(t)

	weekly := starterPlan()
	weekly.ID = "weekly"
	weekly.Interval = proration.Interval("weekly")
	f.insertPlan(t, weekly)

	invalid := starterPlan()
	invalid.ID = "no-currency"
	invalid.AmountCurrency = ""
	f.insertPlan(t, invalid)

	f.subscribe(t, "sub_1", "weekly")
	f.subscribe(t, "sub_2", "no-currency")
	f.invoice(t, "inv_1", "sub_1", day(2024, 1, 10), day(2024, 1, 10))
	f.invoice(t, "inv_2", "sub_2", day(2024, 1, 10), day(2024, 1, 10))

	code, body := serve(t, f, http.MethodPost, "/inv_missing/subscription-fee")
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, body.Error)
	assert.Contains(t, body.Error.Messages, ErrInvoiceNotFound.Error())

	code, body = serve(t, f, http.MethodPost, "/inv_1/subscription-fee")
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, body.Error)

	code, body = serve(t, f, http.MethodGet, "/inv_1/subscription-fee/preview")
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, body.Error)

	code, body = serve(t, f, http.MethodPost, "/inv_2/subscription-fee")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, body.Error)

	var failure ValidationFailure
	require.NoError(t, json.Unmarshal(body.Error.Result, &failure))
	assert.Equal(t, []string{"value_is_mandatory"}, failure.Messages["amountCurrency"])
}
