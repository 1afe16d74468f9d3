package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"price_compare_v1_202609/internal/model"
)

func newTestYodobashiService(baseURL string) *YodobashiService {
	svc := NewYodobashiService()
	svc.BaseURL = baseURL
	svc.retry = &RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	return svc
}

func TestYodobashiService_FetchPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("word"); got == "" {
			t.Error("缺少 word 参数")
		}
		w.Write([]byte(`<html><body>
			<div class="srcResultItem">
				<a href="/product/100000001007287425/">SALOMON Speedcross 6</a>
				<span class="productPrice">¥15,840</span>
				<span class="stock">在庫あり</span>
			</div>
		</body></html>`))
	}))
	defer server.Close()

	svc := newTestYodobashiService(server.URL)
	result := svc.FetchPrice(context.Background(), "Speedcross 6", "L41737900")

	if result.ErrorMessage != "" {
		t.Fatalf("ErrorMessage = %q, want empty", result.ErrorMessage)
	}
	if result.Price == nil || *result.Price != 15840 {
		t.Errorf("Price = %v, want 15840", result.Price)
	}
	if result.Availability != model.AvailabilityInStock {
		t.Errorf("Availability = %v, want in_stock", result.Availability)
	}
	if result.ProductURL != server.URL+"/product/100000001007287425/" {
		t.Errorf("ProductURL = %q", result.ProductURL)
	}
}

func TestYodobashiService_FetchPriceBackorder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/product/100000001007287425/">SALOMON Speedcross 6</a>
			<span>¥15,840</span>
			<span>お取り寄せ</span>
		</body></html>`))
	}))
	defer server.Close()

	svc := newTestYodobashiService(server.URL)
	result := svc.FetchPrice(context.Background(), "Speedcross 6", "L41737900")

	// お取り寄せ也视为可购买
	if result.Availability != model.AvailabilityInStock {
		t.Errorf("Availability = %v, want in_stock", result.Availability)
	}
}

func TestYodobashiService_FetchPriceOutOfStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/product/100000001007287425/">SALOMON Speedcross 6</a>
			<span>¥15,840</span>
			<span>販売休止中</span>
		</body></html>`))
	}))
	defer server.Close()

	svc := newTestYodobashiService(server.URL)
	result := svc.FetchPrice(context.Background(), "Speedcross 6", "L41737900")

	if result.Availability != model.AvailabilityOutOfStock {
		t.Errorf("Availability = %v, want out_of_stock", result.Availability)
	}
}

func TestYodobashiService_FetchPriceNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>検索結果はありません</body></html>`))
	}))
	defer server.Close()

	svc := newTestYodobashiService(server.URL)
	result := svc.FetchPrice(context.Background(), "Speedcross 6", "L41737900")

	if result.Price != nil {
		t.Errorf("Price = %v, want nil", *result.Price)
	}
	if result.Availability != model.AvailabilityNotFound {
		t.Errorf("Availability = %v, want not_found", result.Availability)
	}
}

func TestYodobashiService_FetchPricePriceWithoutProductLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 页面有价格样式的文本但没有商品链接（比如广告位）
		w.Write([]byte(`<html><body>
			<span>ポイント還元 ¥1,584</span>
			検索結果はありません
		</body></html>`))
	}))
	defer server.Close()

	svc := newTestYodobashiService(server.URL)
	result := svc.FetchPrice(context.Background(), "Speedcross 6", "L41737900")

	if result.Price != nil {
		t.Errorf("Price = %v, want nil", *result.Price)
	}
	if result.Availability != model.AvailabilityNotFound {
		t.Errorf("Availability = %v, want not_found (无商品链接不算命中)", result.Availability)
	}
}

func TestYodobashiService_FetchPriceServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := newTestYodobashiService(server.URL)
	result := svc.FetchPrice(context.Background(), "Speedcross 6", "L41737900")

	if calls != 2 {
		t.Errorf("5xx 应重试, 请求次数 = %d, want 2", calls)
	}
	if result.ErrorMessage == "" {
		t.Error("重试耗尽应带错误信息")
	}
}
