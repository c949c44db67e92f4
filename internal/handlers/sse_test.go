package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/internal/utils"
)

// streamRecorder satisfies http.CloseNotifier, which gin's Context.Stream needs.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStreamBoardEvents_RequiresToken(t *testing.T) {
	r := gin.New()
	r.GET("/events", NewSSEHandler(services.NewSSEHub()).StreamBoardEvents)

	for _, path := range []string{"/events", "/events?token=garbage"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestStreamBoardEvents_DeliversOrganizationEvents(t *testing.T) {
	hub := services.NewSSEHub()
	r := gin.New()
	r.GET("/events", NewSSEHandler(hub).StreamBoardEvents)

	token, err := utils.GenerateToken("user_1", "org_a", utils.RoleOrgMember, 1)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/events?token="+token, nil).WithContext(ctx)
	w := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	projectID := uuid.New()
	hub.Publish("org_a", services.BoardEvent{Type: services.EventBoardReordered, ProjectID: projectID})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: board.reordered") || !strings.Contains(body, projectID.String()) {
		t.Errorf("unexpected stream body %q", body)
	}
}
