package carrier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/logeshtheni/sevenxt/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	os.Exit(m.Run())
}

func testWarehouse() Warehouse {
	return Warehouse{
		Name:    "Main Warehouse",
		Phone:   "044-0000000",
		Address: "1 Industrial Estate",
		City:    "Chennai",
		Pincode: "600032",
		Country: "India",
		Email:   "ops@example.com",
	}
}

func decodeShipmentForm(t *testing.T, r *http.Request) map[string]interface{} {
	require.NoError(t, r.ParseForm())
	assert.Equal(t, "json", r.PostFormValue("format"))

	var payload struct {
		Shipments      []map[string]interface{} `json:"shipments"`
		PickupLocation map[string]string        `json:"pickup_location"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.PostFormValue("data")), &payload))
	require.Len(t, payload.Shipments, 1)
	return payload.Shipments[0]
}

// TestCreateShipment 正常创建运单
func TestCreateShipment(t *testing.T) {
	var gotShipment map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cmu/create.json", r.URL.Path)
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
		gotShipment = decodeShipmentForm(t, r)
		w.Write([]byte(`{"success":true,"packages":[{"waybill":"AWB100","status":"Success"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", "Main Warehouse", testWarehouse())
	awb, err := client.CreateShipment(context.Background(), ShipmentRequest{
		OrderRef:     "ORD-1",
		CustomerName: "Asha",
		Pincode:      "600001",
		PaymentMode:  "Prepaid",
		Quantity:     1,
		WeightKG:     0.5,
	})
	assert.NoError(t, err)
	assert.Equal(t, "AWB100", awb)
	assert.Equal(t, "ORD-1", gotShipment["order"])
	assert.Equal(t, "Prepaid", gotShipment["payment_mode"])
	assert.Equal(t, "E", gotShipment["shipping_mode"])
}

// TestCreateShipment_Reverse 逆向运单带回仓字段且支付方式为 Pickup
func TestCreateShipment_Reverse(t *testing.T) {
	var gotShipment map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotShipment = decodeShipmentForm(t, r)
		w.Write([]byte(`{"success":true,"packages":[{"waybill":"RET100"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", "Main Warehouse", testWarehouse())
	awb, err := client.CreateShipment(context.Background(), ShipmentRequest{
		OrderRef:    "ORD-1-EXCH-5-RET",
		PaymentMode: "Prepaid",
		Reverse:     true,
	})
	assert.NoError(t, err)
	assert.Equal(t, "RET100", awb)
	assert.Equal(t, "Pickup", gotShipment["payment_mode"])
	assert.Equal(t, "Main Warehouse", gotShipment["return_name"])
	assert.Equal(t, "600032", gotShipment["return_pin"])
}

// TestCreateShipment_DuplicateOrder 重复下单但运单已存在时按成功处理
func TestCreateShipment_DuplicateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"packages":[{"waybill":"AWB100","status":"Fail","remarks":["Duplicate order, already exists"]}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", "Main Warehouse", testWarehouse())
	awb, err := client.CreateShipment(context.Background(), ShipmentRequest{OrderRef: "ORD-1"})
	assert.NoError(t, err)
	assert.Equal(t, "AWB100", awb)
}

// TestCreateShipment_WarehouseMissing 仓库未注册时自动注册并重试一次
func TestCreateShipment_WarehouseMissing(t *testing.T) {
	createCalls := 0
	warehouseCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cmu/create.json":
			createCalls++
			if createCalls == 1 {
				w.Write([]byte(`{"success":false,"rmk":"ClientWarehouse matching query does not exist"}`))
				return
			}
			w.Write([]byte(`{"success":true,"packages":[{"waybill":"AWB200"}]}`))
		case "/api/backend/clientwarehouse/create/":
			warehouseCalls++
			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "Main Warehouse", payload["name"])
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", "Main Warehouse", testWarehouse())
	awb, err := client.CreateShipment(context.Background(), ShipmentRequest{OrderRef: "ORD-1"})
	assert.NoError(t, err)
	assert.Equal(t, "AWB200", awb)
	assert.Equal(t, 2, createCalls)
	assert.Equal(t, 1, warehouseCalls)
}

// TestCreateShipment_Rejected 逻辑失败时返回错误并带上备注
func TestCreateShipment_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"packages":[{"status":"Fail","remarks":["Pin code not serviceable"]}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", "Main Warehouse", testWarehouse())
	_, err := client.CreateShipment(context.Background(), ShipmentRequest{OrderRef: "ORD-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pin code not serviceable")
}

// TestServiceType 10kg 以内走快件，超过走陆运
func TestServiceType(t *testing.T) {
	assert.Equal(t, "E", serviceType(0.5))
	assert.Equal(t, "E", serviceType(10))
	assert.Equal(t, "S", serviceType(10.5))
}

// TestFetchLabel_PDF 接口直接返回 PDF
func TestFetchLabel_PDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/p/packing_slip", r.URL.Path)
		assert.Equal(t, "AWB100", r.URL.Query().Get("wbns"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake label"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", "Main Warehouse", testWarehouse())
	label, err := client.FetchLabel(context.Background(), "AWB100")
	assert.NoError(t, err)
	assert.True(t, len(label) > 0)
	assert.Equal(t, "%PDF", string(label[:4]))
}

// TestFetchLabel_DownloadLink 接口返回 JSON 下载链接时再下载一次
func TestFetchLabel_DownloadLink(t *testing.T) {
	var serverURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/p/packing_slip":
			w.Header().Set("Content-Type", "application/json")
			link, _ := json.Marshal(serverURL + "/labels/AWB100.pdf")
			w.Write([]byte(`{"packages":[{"pdf_download_link":` + string(link) + `}]}`))
		case "/labels/AWB100.pdf":
			w.Write([]byte("%PDF-1.4 downloaded label"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()
	serverURL = server.URL

	client := NewClient(server.URL, "test-token", "Main Warehouse", testWarehouse())
	label, err := client.FetchLabel(context.Background(), "AWB100")
	assert.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 downloaded label", string(label))
}

// TestFetchLabel_NotReady 无 PDF 也无链接时报错
func TestFetchLabel_NotReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"packages":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", "Main Warehouse", testWarehouse())
	_, err := client.FetchLabel(context.Background(), "AWB100")
	assert.Error(t, err)
}

// TestRequestPickup 预约取件
func TestRequestPickup(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fm/request/new/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", "Main Warehouse", testWarehouse())
	err := client.RequestPickup(context.Background(), PickupRequest{
		PickupDate:   "2026-09-02",
		PickupTime:   "11:00:00",
		PackageCount: 1,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Main Warehouse", gotPayload["pickup_location"])
	assert.Equal(t, "2026-09-02", gotPayload["pickup_date"])
}
