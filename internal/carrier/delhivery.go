package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// Warehouse 仓库注册信息
type Warehouse struct {
	Name    string
	Phone   string
	Address string
	City    string
	Pincode string
	Country string
	Email   string
}

// Client Delhivery 快递网关客户端
type Client struct {
	baseURL        string
	token          string
	pickupLocation string
	warehouse      Warehouse
	httpClient     *http.Client
}

func NewClient(baseURL, token, pickupLocation string, warehouse Warehouse) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		pickupLocation: pickupLocation,
		warehouse:      warehouse,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ShipmentRequest 创建运单请求
// Reverse 为 true 时创建逆向取件运单，从客户地址取回到仓库
type ShipmentRequest struct {
	OrderRef     string
	CustomerName string
	Phone        string
	Address      string
	City         string
	State        string
	Pincode      string
	PaymentMode  string // Prepaid / COD
	ProductsDesc string
	Quantity     int
	TotalAmount  float64
	HeightCM     float64
	BreadthCM    float64
	LengthCM     float64
	WeightKG     float64
	Reverse      bool
}

// PickupRequest 上门取件预约请求
type PickupRequest struct {
	PickupDate    string // YYYY-MM-DD
	PickupTime    string // HH:MM:SS
	PackageCount  int
	PickupAddress string
}

type createResponse struct {
	Success  bool   `json:"success"`
	Rmk      string `json:"rmk"`
	Packages []struct {
		Waybill string   `json:"waybill"`
		Status  string   `json:"status"`
		Remarks []string `json:"remarks"`
	} `json:"packages"`
}

// CreateShipment 在快递商创建运单并返回 AWB
// HTTP 200 不代表成功，逻辑失败要看响应体
// 首次遇到仓库不存在时自动注册仓库并重试一次
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (string, error) {
	awb, err := c.createShipmentOnce(ctx, req)
	if err == nil {
		return awb, nil
	}

	if !isWarehouseMissing(err) {
		return "", err
	}

	util.Logger.Warn("取件仓库未注册，尝试自动注册",
		zap.String("order_ref", req.OrderRef),
		zap.String("warehouse", c.warehouse.Name))

	if werr := c.CreateWarehouse(ctx); werr != nil {
		return "", fmt.Errorf("failed to provision warehouse: %w", werr)
	}

	return c.createShipmentOnce(ctx, req)
}

func (c *Client) createShipmentOnce(ctx context.Context, req ShipmentRequest) (string, error) {
	shipment := map[string]interface{}{
		"name":            req.CustomerName,
		"add":             req.Address,
		"city":            req.City,
		"state":           req.State,
		"country":         "India",
		"pin":             req.Pincode,
		"phone":           req.Phone,
		"order":           req.OrderRef,
		"payment_mode":    req.PaymentMode,
		"products_desc":   req.ProductsDesc,
		"quantity":        req.Quantity,
		"total_amount":    req.TotalAmount,
		"shipment_height": req.HeightCM,
		"shipment_width":  req.BreadthCM,
		"shipment_length": req.LengthCM,
		"weight":          req.WeightKG,
		"shipping_mode":   serviceType(req.WeightKG),
	}

	if req.Reverse {
		// 逆向运单：从客户地址取件送回仓库
		shipment["payment_mode"] = "Pickup"
		shipment["return_name"] = c.warehouse.Name
		shipment["return_add"] = c.warehouse.Address
		shipment["return_city"] = c.warehouse.City
		shipment["return_pin"] = c.warehouse.Pincode
		shipment["return_country"] = c.warehouse.Country
		shipment["return_phone"] = c.warehouse.Phone
	}

	payload := map[string]interface{}{
		"shipments":       []interface{}{shipment},
		"pickup_location": map[string]string{"name": c.pickupLocation},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shipment payload: %w", err)
	}

	form := url.Values{}
	form.Set("format", "json")
	form.Set("data", string(data))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/cmu/create.json", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Token "+c.token)

	util.Logger.Info("调用快递商创建运单接口",
		zap.String("order_ref", req.OrderRef),
		zap.Bool("reverse", req.Reverse))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call carrier: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read carrier response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("carrier returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed createResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse carrier response: %w", err)
	}

	awb, remarks := extractWaybill(&parsed)

	if !parsed.Success {
		// 重复下单但运单已存在时按成功处理，保证创建操作幂等
		if awb != "" && isDuplicateOrder(remarks) {
			util.Logger.Warn("订单已在快递商存在，复用已有运单",
				zap.String("order_ref", req.OrderRef),
				zap.String("awb", awb))
			return awb, nil
		}
		return "", fmt.Errorf("carrier rejected shipment: %s", failureDetail(&parsed, body))
	}

	if awb == "" {
		return "", fmt.Errorf("carrier response missing waybill")
	}

	util.Logger.Info("运单创建成功",
		zap.String("order_ref", req.OrderRef),
		zap.String("awb", awb))
	return awb, nil
}

func extractWaybill(resp *createResponse) (string, []string) {
	if len(resp.Packages) == 0 {
		return "", nil
	}
	pkg := resp.Packages[0]
	return pkg.Waybill, pkg.Remarks
}

func isDuplicateOrder(remarks []string) bool {
	for _, r := range remarks {
		lower := strings.ToLower(r)
		if strings.Contains(lower, "duplicate order") || strings.Contains(lower, "already exists") {
			return true
		}
	}
	return false
}

func isWarehouseMissing(err error) bool {
	return strings.Contains(err.Error(), "ClientWarehouse matching query does not exist")
}

func failureDetail(resp *createResponse, body []byte) string {
	if len(resp.Packages) > 0 && len(resp.Packages[0].Remarks) > 0 {
		return strings.Join(resp.Packages[0].Remarks, "; ")
	}
	if resp.Rmk != "" {
		return resp.Rmk
	}
	return truncate(string(body), 200)
}

// serviceType 根据重量选择服务类型：10kg以内用快件，超过走陆运
func serviceType(weightKG float64) string {
	if weightKG > 10 {
		return "S"
	}
	return "E"
}

// CreateWarehouse 在快递商注册取件仓库
func (c *Client) CreateWarehouse(ctx context.Context) error {
	payload := map[string]interface{}{
		"name":            c.warehouse.Name,
		"email":           c.warehouse.Email,
		"phone":           c.warehouse.Phone,
		"address":         c.warehouse.Address,
		"city":            c.warehouse.City,
		"pin":             c.warehouse.Pincode,
		"country":         c.warehouse.Country,
		"registered_name": c.warehouse.Name,
		"return_address":  c.warehouse.Address,
		"return_pin":      c.warehouse.Pincode,
		"return_city":     c.warehouse.City,
		"return_country":  c.warehouse.Country,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/backend/clientwarehouse/create/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call warehouse API: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("warehouse creation failed with status %d: %s",
			resp.StatusCode, truncate(string(respBody), 200))
	}

	util.Logger.Info("仓库注册成功", zap.String("warehouse", c.warehouse.Name))
	return nil
}

type labelResponse struct {
	Packages []struct {
		PdfDownloadLink string `json:"pdf_download_link"`
	} `json:"packages"`
}

// FetchLabel 拉取运单面单 PDF
// 接口可能直接返回 PDF，也可能返回带下载链接的 JSON
func (c *Client) FetchLabel(ctx context.Context, awb string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/api/p/packing_slip?wbns=%s&pdf=true", c.baseURL, url.QueryEscape(awb))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch label: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read label response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("label API returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/pdf") || bytes.HasPrefix(body, []byte("%PDF")) {
		return body, nil
	}

	var parsed labelResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected label response format: %w", err)
	}
	if len(parsed.Packages) == 0 || parsed.Packages[0].PdfDownloadLink == "" {
		return nil, fmt.Errorf("label not ready for awb %s", awb)
	}

	return c.downloadLabel(ctx, parsed.Packages[0].PdfDownloadLink)
}

func (c *Client) downloadLabel(ctx context.Context, link string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to download label: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(body, []byte("%PDF")) {
		return nil, fmt.Errorf("label download returned invalid content")
	}
	return body, nil
}

// RequestPickup 预约上门取件
// 仅做通知性质的调用，失败由调用方决定是否忽略
func (c *Client) RequestPickup(ctx context.Context, req PickupRequest) error {
	payload := map[string]interface{}{
		"pickup_location":        c.pickupLocation,
		"pickup_date":            req.PickupDate,
		"pickup_time":            req.PickupTime,
		"expected_package_count": req.PackageCount,
	}
	if req.PickupAddress != "" {
		payload["pickup_address"] = req.PickupAddress
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/fm/request/new/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to request pickup: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("pickup request failed with status %d: %s",
			resp.StatusCode, truncate(string(respBody), 200))
	}

	util.Logger.Info("取件预约成功",
		zap.String("pickup_date", req.PickupDate),
		zap.String("pickup_time", req.PickupTime))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
