package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

// stubAPI imitates the ecobin API.
type stubAPI struct {
	mu       sync.Mutex
	bin      BinView
	toggles  int
	empties  int
	lastChat ChatRequest
	cloud    bool
}

func newStubAPI() *stubAPI {
	data := domain.NewTrashCanData("bin-001")
	data.Level = 80
	data.IsConnected = true
	return &stubAPI{bin: BinView{
		Data:   data,
		Status: domain.StatusFull,
		Logs:   []domain.UsageLog{{ID: "1", Timestamp: "09:12", Type: domain.LogOpen, Details: "Lid opened manually"}},
	}}
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method + " " + r.URL.Path {
	case "GET /health":
		_, _ = w.Write([]byte("ok"))
	case "GET /bin":
		writeJSON(w, http.StatusOK, s.bin)
	case "POST /bin/lid/toggle":
		s.toggles++
		s.bin.Data.LidOpen = !s.bin.Data.LidOpen
		writeJSON(w, http.StatusOK, s.bin)
	case "POST /bin/empty":
		s.empties++
		s.bin.Data.Level = 0
		writeJSON(w, http.StatusOK, s.bin)
	case "GET /stats/weekly":
		writeJSON(w, http.StatusOK, []domain.DayCount{{Name: "T2", Amount: 3}, {Name: "T3", Amount: 1}})
	case "GET /stats/compare":
		writeJSON(w, http.StatusOK, domain.TodayVsYesterday{Today: 2, Yesterday: 1, Diff: 1})
	case "GET /history":
		writeJSON(w, http.StatusOK, []domain.UsageLog{{ID: "h1", Timestamp: "08:00 17/10/2026", Type: domain.LogEmpty, Details: "Trash emptied"}})
	case "GET /assistant":
		writeJSON(w, http.StatusOK, AssistantInfo{
			Greeting:     domain.ChatMessage{ID: "g", Role: domain.RoleModel, Text: "Hi! I'm EcoBot."},
			QuickPrompts: []string{"Where do old batteries go?"},
		})
	case "POST /assistant/chat":
		_ = json.NewDecoder(r.Body).Decode(&s.lastChat)
		if strings.TrimSpace(s.lastChat.Message) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty prompt"})
			return
		}
		writeJSON(w, http.StatusOK, ChatResponse{Reply: domain.ChatMessage{ID: "r", Role: domain.RoleModel, Text: "Recycle it ♻️"}})
	case "GET /maintenance":
		writeJSON(w, http.StatusOK, Maintenance{BinID: "bin-001", CurrentHealth: 64, NextServiceDate: time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC), Recommendation: "Lid actuator operating normally"})
	case "POST /reports/weekly":
		if !s.cloud {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cloud services not enabled"})
			return
		}
		writeJSON(w, http.StatusCreated, ArchivedReport{Key: "reports/bin-001/2026-W42.json", URL: "https://example.invalid"})
	default:
		http.NotFound(w, r)
	}
}

var _ = Describe("Dashboard", func() {
	var (
		stub   *stubAPI
		api    *httptest.Server
		dash   *Server
		srv    *httptest.Server
		client *http.Client
	)

	BeforeEach(func() {
		stub = newStubAPI()
		api = httptest.NewServer(stub)
		DeferCleanup(api.Close)

		dash = New(NewClient(api.URL))
		srv = httptest.NewServer(dash)
		DeferCleanup(srv.Close)

		client = &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}}
	})

	get := func(path string) (int, string) {
		resp, err := client.Get(srv.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, string(body)
	}

	It("should report the API as online", func() {
		code, body := get("/healthz")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"status":"online"}`))
	})

	It("should report the API as offline when it is down", func() {
		api.Close()
		_, body := get("/healthz")
		Expect(body).To(MatchJSON(`{"status":"offline"}`))
	})

	It("should render the overview", func() {
		code, body := get("/")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`class="bin full"`))
		Expect(body).To(ContainSubstring("80%"))
		Expect(body).To(ContainSubstring("Lid opened manually"))
		Expect(body).To(ContainSubstring(`"name":"T2"`))
	})

	It("should label the lid button from the live state", func() {
		_, body := get("/")
		Expect(body).To(ContainSubstring(`id="lid-toggle">Open lid</button>`))
		Expect(body).To(ContainSubstring(`set("lid-toggle", d.lidOpen ? "Close lid" : "Open lid")`))
	})

	DescribeTable("other views",
		func(path, want string) {
			code, body := get(path)
			Expect(code).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring(want))
		},
		Entry("history", "/view/HISTORY", "08:00 17/10/2026"),
		Entry("assistant", "/view/ASSISTANT", "Where do old batteries go?"),
		Entry("settings", "/view/SETTINGS", "2027-01-02"),
		Entry("unknown view falls back", "/view/nope", `class="bin full"`),
	)

	It("should show an error banner when the API is down", func() {
		api.Close()
		code, body := get("/view/HISTORY")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`class="error"`))
		Expect(body).To(ContainSubstring("offline"))
	})

	It("should toggle the lid and redirect", func() {
		resp, err := client.Post(srv.URL+"/lid", "application/x-www-form-urlencoded", nil)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		Expect(resp.Header.Get("Location")).To(Equal("/"))
		Expect(stub.toggles).To(Equal(1))
	})

	It("should empty the bin", func() {
		resp, err := client.Post(srv.URL+"/empty", "application/x-www-form-urlencoded", nil)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.Header.Get("Location")).To(Equal("/?msg=Bin+emptied"))
		Expect(stub.empties).To(Equal(1))
	})

	It("should explain that reports need cloud services", func() {
		resp, err := client.Post(srv.URL+"/reports", "application/x-www-form-urlencoded", nil)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.Header.Get("Location")).To(ContainSubstring("/view/SETTINGS?err="))

		stub.cloud = true
		resp, err = client.Post(srv.URL+"/reports", "application/x-www-form-urlencoded", nil)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.Header.Get("Location")).To(ContainSubstring("msg=Report+archived"))
	})

	Describe("chat proxy", func() {
		It("should forward the turn with its history", func() {
			resp, err := client.Post(srv.URL+"/chat", "application/json",
				strings.NewReader(`{"message":"glass?","history":[{"id":"1","role":"user","text":"hi"}]}`))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out ChatResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Reply.Text).To(Equal("Recycle it ♻️"))
			Expect(stub.lastChat.Message).To(Equal("glass?"))
			Expect(stub.lastChat.History).To(HaveLen(1))
		})

		It("should pass client errors through", func() {
			resp, err := client.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{"message":" "}`))
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should reject malformed JSON", func() {
			resp, err := client.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{`))
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	It("should expose metrics", func() {
		code, body := get("/metrics")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("ecobin_dashboard_websocket_clients"))
	})

	Describe("websocket", func() {
		dial := func() *websocket.Conn {
			u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(u, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(conn.Close)
			return conn
		}

		readEnvelope := func(conn *websocket.Conn) (string, LiveState) {
			var msg struct {
				Type string    `json:"type"`
				Data LiveState `json:"data"`
			}
			Expect(conn.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
			Expect(conn.ReadJSON(&msg)).To(Succeed())
			return msg.Type, msg.Data
		}

		It("should send the current state on connect", func() {
			conn := dial()
			typ, state := readEnvelope(conn)
			Expect(typ).To(Equal("init"))
			Expect(state.Online).To(BeTrue())
			Expect(state.Bin.Data.Level).To(Equal(80.0))
			Expect(state.Weekly).To(HaveLen(2))
		})

		It("should push periodic updates", func() {
			ctx, cancel := context.WithCancel(context.Background())
			DeferCleanup(cancel)
			go dash.Run(ctx, 20*time.Millisecond)

			conn := dial()
			typ, _ := readEnvelope(conn)
			Expect(typ).To(Equal("init"))
			Eventually(dash.hub.Count).Should(Equal(1))

			typ, state := readEnvelope(conn)
			Expect(typ).To(Equal("update"))
			Expect(state.Bin).NotTo(BeNil())
		})

		It("should forget clients that disconnect", func() {
			conn := dial()
			readEnvelope(conn)
			Eventually(dash.hub.Count).Should(Equal(1))
			Expect(conn.Close()).To(Succeed())
			Eventually(dash.hub.Count).Should(Equal(0))
		})
	})
})
