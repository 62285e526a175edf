package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditActionFor(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodPost, "/inventory/products", AuditCreate},
		{http.MethodPost, "/inventory/products/4/edit", AuditUpdate},
		{http.MethodPost, "/inventory/products/4/delete", AuditDelete},
		{http.MethodPost, "/sales/quotations/7/status", AuditStatus},
		{http.MethodPost, "/sales/quotations/7/convert", AuditConvert},
		{http.MethodPost, "/purchasing/orders/2/receive", AuditReceive},
		{http.MethodPost, "/sales/invoices/9/receipts", AuditPayment},
		{http.MethodPost, "/sales/invoices/9/cancel", AuditStatus},
		{http.MethodDelete, "/sales/invoices/9", AuditDelete},
		{http.MethodPatch, "/hr/employees/3", AuditUpdate},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(tc.method, tc.path, nil)
		assert.Equal(t, tc.want, AuditActionFor(r), "%s %s", tc.method, tc.path)
	}
}
