package universe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T, handler http.HandlerFunc, ranges []codeRange) *Provider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewProvider(zerolog.Nop())
	p.baseURL = srv.URL + "/q="
	p.ranges = ranges
	return p
}

func TestParseQuoteLines(t *testing.T) {
	body := `v_sh600000="1~浦发银行~600000~10.20~10.10~0.1";` + "\n" +
		`v_sh600001="1~~600001~0.00";` + // no name, no price: unlisted probe
		`v_sh600002="1~邯郸钢铁~600002~0.00";` + // zero price
		`garbage line;` +
		`v_sz000001="51~平安银行~000001~11.55~11.40";`

	instruments := parseQuoteLines(body)
	require.Len(t, instruments, 2)
	assert.Equal(t, Instrument{Code: "600000", Name: "浦发银行"}, instruments[0])
	assert.Equal(t, Instrument{Code: "000001", Name: "平安银行"}, instruments[1])
}

func TestList_LiveEnumeration(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		// Answer every batch with the same three listings; dedupe keeps one of each.
		_, _ = w.Write([]byte(`v_sh600519="1~贵州茅台~600519~1700.00";` +
			`v_sh600036="1~招商银行~600036~33.10";` +
			`v_sh510300="1~沪深300ETF~510300~3.95";`))
	}
	p := testProvider(t, handler, []codeRange{{prefix: "sh", start: 600000, end: 600200}})

	instruments, err := p.List(context.Background(), MarketAll)
	require.NoError(t, err)
	require.Len(t, instruments, 2)
	assert.Equal(t, "600519", instruments[0].Code)
	assert.Equal(t, "600036", instruments[1].Code)
}

func TestList_FallbackToSeedList(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	p := testProvider(t, handler, []codeRange{{prefix: "sh", start: 600000, end: 600100}})

	instruments, err := p.List(context.Background(), MarketAll)
	require.NoError(t, err)
	assert.NotEmpty(t, instruments, "seed list must keep the scan alive")
}

func TestList_MarketFilter(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	p := testProvider(t, handler, []codeRange{{prefix: "sh", start: 600000, end: 600100}})

	instruments, err := p.List(context.Background(), MarketSTAR)
	require.NoError(t, err)
	require.NotEmpty(t, instruments)
	for _, inst := range instruments {
		assert.Equal(t, "688", inst.Code[:3])
	}
}

func TestIsEquity(t *testing.T) {
	assert.True(t, IsEquity("600519", "贵州茅台"))
	assert.True(t, IsEquity("300750", "宁德时代"))

	assert.False(t, IsEquity("510300", "沪深300ETF"))
	assert.False(t, IsEquity("161725", "招商中证白酒指数基金"))
	assert.False(t, IsEquity("200002", "万科B"))   // B share
	assert.False(t, IsEquity("900905", "老凤祥B")) // B share
	assert.False(t, IsEquity("113009", "广汽转债")) // convertible bond
	assert.False(t, IsEquity("123456", "测试转债")) // convertible bond
	assert.False(t, IsEquity("", "无代码"))
	assert.False(t, IsEquity("600000", ""))
}

func TestFilterByMarket(t *testing.T) {
	instruments := []Instrument{
		{"600000", "浦发银行"},
		{"000001", "平安银行"},
		{"300750", "宁德时代"},
		{"688981", "中芯国际"},
		{"830799", "艾融软件"},
		{"430047", "诺思兰德"},
	}

	assert.Len(t, FilterByMarket(instruments, MarketAll), 6)
	assert.Equal(t, []Instrument{{"600000", "浦发银行"}}, FilterByMarket(instruments, MarketShanghai))
	assert.Equal(t, []Instrument{{"000001", "平安银行"}}, FilterByMarket(instruments, MarketShenzhen))
	assert.Equal(t, []Instrument{{"300750", "宁德时代"}}, FilterByMarket(instruments, MarketChiNext))
	assert.Equal(t, []Instrument{{"688981", "中芯国际"}}, FilterByMarket(instruments, MarketSTAR))
	assert.Len(t, FilterByMarket(instruments, MarketBeijing), 2)
}
