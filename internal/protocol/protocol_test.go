package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/domain"
)

func TestReadRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int64
		want    string
		wantErr error
	}{
		{
			name:  "stops at closing tag line",
			input: "<request>\n<action>LOGIN</action>\n</request>\ntrailing garbage\n",
			want:  "<request>\n<action>LOGIN</action>\n</request>\n",
		},
		{
			name:  "closing tag with surrounding spaces",
			input: "<request><action>X</action>  </request>   \nmore",
			want:  "<request><action>X</action>  </request>   \n",
		},
		{
			name:  "eof without terminator",
			input: "<request><action>X</action>",
			want:  "<request><action>X</action>",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: ErrEmptyRequest,
		},
		{
			name:    "whitespace only",
			input:   "  \n\t\n",
			wantErr: ErrEmptyRequest,
		},
		{
			name:    "too large",
			input:   "<request>" + strings.Repeat("x", 100) + "</request>\n",
			max:     50,
			wantErr: ErrRequestTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRequest(strings.NewReader(tt.input), tt.max)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestParseRequest(t *testing.T) {
	raw := `<request>
  <action> BUY_PRODUCT </action>
  <username> alice </username>
  <data>
    <productId> PRD-1 </productId>
    <quantity>2</quantity>
    <quantity>9</quantity>
  </data>
</request>`

	req, err := ParseRequest([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, ActionBuyProduct, req.Action)
	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "PRD-1", req.Field(FieldProductID))
	assert.Equal(t, "2", req.Field(FieldQuantity))
	assert.False(t, req.HasField(FieldKeyword))
	assert.Len(t, req.Data.All(), 2)
}

func TestParseRequest_NoData(t *testing.T) {
	req, err := ParseRequest([]byte("<request><action>FETCH_ALL_PRODUCTS</action></request>"))
	require.NoError(t, err)

	assert.Nil(t, req.Data)
	assert.Equal(t, "", req.Field(FieldKeyword))
	assert.Empty(t, req.Username)
}

func TestParseRequest_Malformed(t *testing.T) {
	for _, raw := range []string{
		"<request><action>LOGIN</request>",
		"<response><status>x</status></response>",
		"not xml at all",
	} {
		_, err := ParseRequest([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestEncodeRequest_RoundTrip(t *testing.T) {
	req := NewRequest(ActionAddProduct, "bob").
		With(FieldName, "Milk & <Honey>").
		With(FieldCategory, "Dairy")

	var buf bytes.Buffer
	require.NoError(t, EncodeRequest(&buf, req))

	raw, err := ReadRequest(&buf, 0)
	require.NoError(t, err)

	got, err := ParseRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "Milk & <Honey>", got.Field(FieldName))
	assert.Equal(t, "Dairy", got.Field(FieldCategory))
}

func TestEncodeResponse(t *testing.T) {
	p := domain.Product{ProductID: "PRD-1", Name: "Milk", AvailableQuantity: 2, Status: domain.ProductAvailable}
	resp := Success("Products fetched.").WithData(&Data{
		Products: &ProductList{Products: []domain.Product{p}},
	})

	var buf bytes.Buffer
	require.NoError(t, EncodeResponse(&buf, resp))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?><response>`))
	assert.True(t, strings.HasSuffix(out, "</response>\n"))
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "<products><product><productId>PRD-1</productId>")

	decoded, err := DecodeResponse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, decoded.Status)
	require.NotNil(t, decoded.Data)
	require.NotNil(t, decoded.Data.Products)
	assert.Equal(t, []domain.Product{p}, decoded.Data.Products.Products)
}

func TestResponse_OmitsEmptyData(t *testing.T) {
	out, err := MarshalResponse(Failed("Username already exists."))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<data>")
	assert.Contains(t, string(out), "<status>FAILED</status><message>Username already exists.</message>")
}

func TestResponse_EmptyListStillRendered(t *testing.T) {
	out, err := MarshalResponse(Success("Search results.").WithData(&Data{Products: &ProductList{}}))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<data><products></products></data>")
}

func TestNewUserList_HidesPasswords(t *testing.T) {
	list := NewUserList([]domain.Account{{
		AccountID: "ACC-1", Username: "alice", Password: "secret",
		Role: domain.RoleBuyer, Status: domain.AccountApproved,
	}})

	out, err := MarshalResponse(Success("Users fetched.").WithData(&Data{Users: list}))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
	assert.Contains(t, string(out), "<user><accountId>ACC-1</accountId><username>alice</username><role>BUYER</role><status>APPROVED</status></user>")
}
