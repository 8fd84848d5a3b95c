package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
)

// stubClient registra los mensajes enviados para las pruebas
type stubClient struct {
	name     string
	messages []string
	files    []string
	err      error
}

func (s *stubClient) SendNotification(ctx context.Context, message string) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, message)
	return nil
}

func (s *stubClient) Name() string {
	return s.name
}

func (s *stubClient) SendFile(ctx context.Context, filePath, fileName, caption string) error {
	if s.err != nil {
		return s.err
	}
	s.files = append(s.files, fileName)
	return nil
}

func resultWithUpdate() types.CheckResult {
	return types.CheckResult{
		CheckedAt: time.Now(),
		Reports: []types.ReferenceReport{
			{
				Reference:  "nginx:1.27.0",
				Image:      types.ImageReference{Registry: types.DefaultRegistry, Repository: "library/nginx", Tag: "1.27.0"},
				NewerTags:  []string{"1.27.1", "1.28.0"},
				LatestTag:  "1.28.0",
				UpdateType: types.UpdateTypeMinor,
			},
			{
				Reference:  "redis:7.4.0",
				Image:      types.ImageReference{Registry: types.DefaultRegistry, Repository: "library/redis", Tag: "7.4.0"},
				UpdateType: types.UpdateTypeNone,
			},
		},
	}
}

func TestTelegramClient_Name(t *testing.T) {
	client := NewTelegramClient("token", "chat")
	if name := client.Name(); name != "telegram" {
		t.Errorf("Expected name 'telegram', got '%s'", name)
	}
}

func TestTelegramClient_SendNotification_EmptyToken(t *testing.T) {
	client := NewTelegramClient("", "chat")
	err := client.SendNotification(context.Background(), "test message")
	if err == nil {
		t.Fatal("Expected error for empty token, got nil")
	}
	if !errors.IsType(err, errors.ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got: %v", err)
	}
	if !strings.Contains(err.Error(), "bot token is required") {
		t.Errorf("Expected error message about bot token, got: %v", err)
	}
}

func TestTelegramClient_SendNotification_EmptyChatID(t *testing.T) {
	client := NewTelegramClient("token", "")
	err := client.SendNotification(context.Background(), "test message")
	if err == nil {
		t.Fatal("Expected error for empty chat ID, got nil")
	}
	if !strings.Contains(err.Error(), "chat ID is required") {
		t.Errorf("Expected error message about chat ID, got: %v", err)
	}
}

func TestTelegramClient_splitMessage(t *testing.T) {
	client := NewTelegramClient("token", "chat")

	// Mensaje con líneas, el corte debe preferir los saltos de línea
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, "line with some content to fill the message")
	}
	message := strings.Join(lines, "\n")

	parts := client.splitMessage(message, 500)

	if len(parts) < 2 {
		t.Fatalf("Expected message to be split, got %d parts", len(parts))
	}

	for i, part := range parts {
		if len([]rune(part)) > 500 {
			t.Errorf("Part %d exceeds max length: %d", i, len([]rune(part)))
		}
	}

	if strings.Join(parts, "") != message {
		t.Error("Joined parts should equal the original message")
	}
}

func TestTelegramClient_splitMessage_Short(t *testing.T) {
	client := NewTelegramClient("token", "chat")

	parts := client.splitMessage("short message", 4096)
	if len(parts) != 1 || parts[0] != "short message" {
		t.Errorf("Short message should not be split, got %v", parts)
	}
}

func TestTelegramClient_SendNotification_CallsAPI(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewTelegramClient("token123", "chat456")
	client.apiBase = server.URL

	if err := client.SendNotification(context.Background(), "hello"); err != nil {
		t.Fatalf("SendNotification failed: %v", err)
	}

	if gotPath != "/bottoken123/sendMessage" {
		t.Errorf("Unexpected API path: %s", gotPath)
	}
	if gotBody["chat_id"] != "chat456" || gotBody["text"] != "hello" {
		t.Errorf("Unexpected request body: %v", gotBody)
	}
}

func TestTelegramClient_SendNotification_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	}))
	defer server.Close()

	client := NewTelegramClient("token", "chat")
	client.apiBase = server.URL
	// Sin espera entre reintentos no hay razón para alargar el test
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := client.SendNotification(ctx, "hello")
	if err == nil {
		t.Fatal("Expected error from API failure")
	}
}

func TestNotificationService_AddClient(t *testing.T) {
	service := NewNotificationService()
	if service.HasClients() {
		t.Error("Expected no clients initially")
	}

	client := NewTelegramClient("token", "chat")
	service.AddClient(client)

	if !service.HasClients() {
		t.Error("Expected to have clients after adding")
	}

	names := service.GetClientNames()
	if len(names) != 1 || names[0] != "telegram" {
		t.Errorf("Expected client names ['telegram'], got %v", names)
	}
}

func TestNotificationService_NotifyCheckResult_NothingToReport(t *testing.T) {
	stub := &stubClient{name: "stub"}
	service := NewNotificationService(stub)

	result := types.CheckResult{
		CheckedAt: time.Now(),
		Reports: []types.ReferenceReport{
			{Reference: "nginx:1.27.0", UpdateType: types.UpdateTypeNone},
		},
	}

	// No debería enviar nada si no hay updates ni errores
	if err := service.NotifyCheckResult(context.Background(), result); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if len(stub.messages) != 0 {
		t.Errorf("Expected no messages, got %d", len(stub.messages))
	}
}

func TestNotificationService_NotifyCheckResult_WithUpdates(t *testing.T) {
	stub := &stubClient{name: "stub"}
	service := NewNotificationService(stub)

	if err := service.NotifyCheckResult(context.Background(), resultWithUpdate()); err != nil {
		t.Fatalf("NotifyCheckResult failed: %v", err)
	}

	if len(stub.messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(stub.messages))
	}

	message := stub.messages[0]
	if !strings.Contains(message, "nginx:1.27.0") {
		t.Errorf("Message should mention the updated reference: %s", message)
	}
	if !strings.Contains(message, "1.27.0 → 1.28.0") {
		t.Errorf("Message should show the version change: %s", message)
	}
	if strings.Contains(message, "redis") {
		t.Errorf("Up to date references should not appear: %s", message)
	}
}

func TestNotificationService_NotifyCheckResult_ClientError(t *testing.T) {
	stub := &stubClient{name: "stub", err: errors.New("stub.Send", "boom")}
	service := NewNotificationService(stub)

	err := service.NotifyCheckResult(context.Background(), resultWithUpdate())
	if err == nil {
		t.Fatal("Expected error when client fails")
	}
	if !errors.IsType(err, errors.ErrNotificationFailed) {
		t.Errorf("Expected ErrNotificationFailed, got: %v", err)
	}
}

func TestNotificationService_NotifyCheckResult_NoClients(t *testing.T) {
	service := NewNotificationService()

	// Sin clientes configurados no es un error
	if err := service.NotifyCheckResult(context.Background(), resultWithUpdate()); err != nil {
		t.Errorf("Expected success with no clients, got error: %v", err)
	}
}

func TestNotificationService_NotifyCustomMessage(t *testing.T) {
	stub := &stubClient{name: "stub"}
	service := NewNotificationService(stub)

	if err := service.NotifyCustomMessage(context.Background(), "Custom test message"); err != nil {
		t.Fatalf("NotifyCustomMessage failed: %v", err)
	}

	if len(stub.messages) != 1 || stub.messages[0] != "Custom test message" {
		t.Errorf("Expected custom message to pass through, got %v", stub.messages)
	}
}

func TestNotificationService_NotifyReportFile(t *testing.T) {
	fileCapable := &stubClient{name: "files"}
	service := NewNotificationService(fileCapable)

	err := service.NotifyReportFile(context.Background(), "/tmp/report.html", "report.html", "caption")
	if err != nil {
		t.Fatalf("NotifyReportFile failed: %v", err)
	}

	if len(fileCapable.files) != 1 || fileCapable.files[0] != "report.html" {
		t.Errorf("Expected file to be sent, got %v", fileCapable.files)
	}
}

func TestBuildMessage_IncludesErrors(t *testing.T) {
	result := resultWithUpdate()
	result.Reports = append(result.Reports, types.ReferenceReport{
		Reference:  "broken:tag",
		UpdateType: types.UpdateTypeUnknown,
		Error:      "registry request failed",
	})

	message := buildMessage(result)

	if !strings.Contains(message, "Errors") {
		t.Errorf("Message should have an errors section: %s", message)
	}
	if !strings.Contains(message, "broken:tag") {
		t.Errorf("Message should mention the failed reference: %s", message)
	}
	if !strings.Contains(message, "newer tags: 1.27.1, 1.28.0") {
		t.Errorf("Message should list newer tags: %s", message)
	}
}

func TestBuildMessage_EscapesHTML(t *testing.T) {
	result := resultWithUpdate()
	result.Reports = append(result.Reports, types.ReferenceReport{
		Reference:  "broken:tag",
		UpdateType: types.UpdateTypeUnknown,
		Error:      `unexpected response: <html><body>503</body></html>`,
	})

	message := buildMessage(result)

	if strings.Contains(message, "<html>") {
		t.Errorf("Error text must be escaped for Telegram HTML mode: %s", message)
	}
	if !strings.Contains(message, "&lt;html&gt;") {
		t.Errorf("Expected escaped error text in message: %s", message)
	}
}
