package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/user/image-update-checker/pkg/errors"
)

const (
	defaultTelegramAPI = "https://api.telegram.org"

	// Telegram corta los mensajes en 4096 caracteres
	maxMessageRunes = 4096

	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

// TelegramClient implementa NotificationClient enviando mensajes a un chat
// de Telegram a través de la API de bots
type TelegramClient struct {
	botToken string
	chatID   string
	client   *http.Client

	// apiBase se sobreescribe en tests para apuntar a un servidor local
	apiBase string
}

// NewTelegramClient crea un nuevo cliente de Telegram
func NewTelegramClient(botToken, chatID string) *TelegramClient {
	return &TelegramClient{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 30 * time.Second},
		apiBase:  defaultTelegramAPI,
	}
}

// Name devuelve el nombre del cliente de notificación
func (t *TelegramClient) Name() string {
	return "telegram"
}

// endpoint arma la URL de un método de la API de bots
func (t *TelegramClient) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.botToken, method)
}

// checkCredentials valida que haya token y chat configurados
func (t *TelegramClient) checkCredentials(op string) error {
	if t.botToken == "" {
		return errors.Wrapf(op, errors.ErrMissingCredential, "bot token is required")
	}
	if t.chatID == "" {
		return errors.Wrapf(op, errors.ErrMissingCredential, "chat ID is required")
	}
	return nil
}

// SendNotification envía un mensaje al chat configurado, troceándolo cuando
// supera el límite de Telegram
func (t *TelegramClient) SendNotification(ctx context.Context, message string) error {
	if err := t.checkCredentials("telegram.SendNotification"); err != nil {
		return err
	}

	parts := t.splitMessage(message, maxMessageRunes)
	for i, part := range parts {
		if i > 0 {
			// Pausa corta entre partes para no disparar el rate limit
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}

		if err := t.sendMessage(ctx, part); err != nil {
			return errors.Wrapf("telegram.SendNotification", err,
				"sending message part %d/%d", i+1, len(parts))
		}
	}

	return nil
}

// SendFile adjunta un archivo como documento en el chat configurado
func (t *TelegramClient) SendFile(ctx context.Context, filePath, fileName, caption string) error {
	if err := t.checkCredentials("telegram.SendFile"); err != nil {
		return err
	}

	fileData, err := os.ReadFile(filePath) //nolint:gosec
	if err != nil {
		return errors.Wrap("telegram.SendFile", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("chat_id", t.chatID); err != nil {
		return errors.Wrap("telegram.SendFile", err)
	}
	if caption != "" {
		if err := form.WriteField("caption", caption); err != nil {
			return errors.Wrap("telegram.SendFile", err)
		}
		if err := form.WriteField("parse_mode", "HTML"); err != nil {
			return errors.Wrap("telegram.SendFile", err)
		}
	}
	part, err := form.CreateFormFile("document", fileName)
	if err != nil {
		return errors.Wrap("telegram.SendFile", err)
	}
	if _, err := part.Write(fileData); err != nil {
		return errors.Wrap("telegram.SendFile", err)
	}
	if err := form.Close(); err != nil {
		return errors.Wrap("telegram.SendFile", err)
	}

	return t.postWithRetries(ctx, "telegram.SendFile",
		t.endpoint("sendDocument"), form.FormDataContentType(), body.Bytes())
}

// sendMessage envía un único mensaje de texto
func (t *TelegramClient) sendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return errors.Wrap("telegram.sendMessage", err)
	}

	return t.postWithRetries(ctx, "telegram.sendMessage",
		t.endpoint("sendMessage"), "application/json", payload)
}

// postWithRetries hace el POST y reintenta con una espera fija entre
// intentos; el contexto corta los reintentos pendientes
func (t *TelegramClient) postWithRetries(ctx context.Context, op, url, contentType string, payload []byte) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = t.post(ctx, op, url, contentType, payload)
		if lastErr == nil {
			return nil
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return errors.Wrapf(op, lastErr, "failed after %d attempts", maxAttempts)
}

// post hace una única llamada a la API y valida la respuesta
func (t *TelegramClient) post(ctx context.Context, op, url, contentType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(op, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(op, err)
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(op, errors.ErrNotificationFailed,
			"telegram API error: %s (status: %d)", string(body), resp.StatusCode)
	}

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description,omitempty"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return errors.Wrap(op, err)
	}
	if !apiResp.OK {
		return errors.Wrapf(op, errors.ErrNotificationFailed, "telegram API error: %s", apiResp.Description)
	}

	return nil
}

// splitMessage trocea un mensaje en partes de como mucho maxLength runas,
// prefiriendo cortar en saltos de línea y después en espacios
func (t *TelegramClient) splitMessage(message string, maxLength int) []string {
	runes := []rune(message)
	if len(runes) <= maxLength {
		return []string{message}
	}

	var parts []string
	for len(runes) > maxLength {
		cut := maxLength

		// Buscar hacia atrás un salto de línea en la segunda mitad
		for i := maxLength - 1; i > maxLength/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}

		// Sin saltos de línea, buscar un espacio
		if cut == maxLength {
			for i := maxLength - 1; i > maxLength/2; i-- {
				if runes[i] == ' ' {
					cut = i + 1
					break
				}
			}
		}

		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}

	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}

	return parts
}
