package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"electoral-app/internal/models"
)

// Auth operations

// Me returns the user the current token belongs to
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.Call(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &user, nil
}

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var response models.AuthResponse
	req := &models.LoginRequest{Username: username, Password: password}
	if err := c.Call(ctx, http.MethodPost, "/auth/login", req, &response); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	return &response, nil
}

// Register creates an account and returns its access token
func (c *Client) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	var response models.AuthResponse
	if err := c.Call(ctx, http.MethodPost, "/auth/register", req, &response); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}
	return &response, nil
}

// RecoverPassword starts the server-side recovery flow for email
func (c *Client) RecoverPassword(ctx context.Context, email string) (string, error) {
	var response models.RecoveryResponse
	req := &models.RecoveryRequest{Email: email}
	if err := c.Call(ctx, http.MethodPost, "/auth/password-recovery", req, &response); err != nil {
		return "", fmt.Errorf("failed to request password recovery: %w", err)
	}
	return response.Message, nil
}

// RequestElectoralAccess asks the server to elevate the user to a section delegate
func (c *Client) RequestElectoralAccess(ctx context.Context, section int, code string) error {
	req := &models.ElectoralAccessRequest{Section: section, Code: code}
	if err := c.Call(ctx, http.MethodPost, "/auth/electoral-access", req, nil); err != nil {
		return fmt.Errorf("failed to request electoral access: %w", err)
	}
	return nil
}

// RequestAdminAccess asks the server to elevate the user to admin
func (c *Client) RequestAdminAccess(ctx context.Context, code string) error {
	req := &models.AdminAccessRequest{Code: code}
	if err := c.Call(ctx, http.MethodPost, "/auth/admin-access", req, nil); err != nil {
		return fmt.Errorf("failed to request admin access: %w", err)
	}
	return nil
}

// Emergency operations

// SendEmergency posts an emergency message. With a photo the message and the file
// travel in one multipart request; without one the body is JSON.
func (c *Client) SendEmergency(ctx context.Context, message string, photo *models.Photo) (*models.EmergencyMessage, error) {
	var created models.EmergencyMessage
	var err error
	if photo != nil {
		err = c.UploadFile(ctx, "/emergency/send", photo, map[string]string{"message": message}, &created)
	} else {
		err = c.Call(ctx, http.MethodPost, "/emergency/send", &models.EmergencyRequest{Message: message}, &created)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to send emergency message: %w", err)
	}
	return &created, nil
}

// ListEmergencyMessages returns the feed in server order (newest first)
func (c *Client) ListEmergencyMessages(ctx context.Context) ([]*models.EmergencyMessage, error) {
	var messages []*models.EmergencyMessage
	if err := c.Call(ctx, http.MethodGet, "/emergency/messages", nil, &messages); err != nil {
		return nil, fmt.Errorf("failed to list emergency messages: %w", err)
	}
	return messages, nil
}

// DeleteEmergencyMessage deletes one message
func (c *Client) DeleteEmergencyMessage(ctx context.Context, id models.ID) error {
	path := fmt.Sprintf("/emergency/%s", url.PathEscape(string(id)))
	if err := c.Call(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete emergency message: %w", err)
	}
	return nil
}

// Admin operations

// AdminStats returns dashboard counters
func (c *Client) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats
	if err := c.Call(ctx, http.MethodGet, "/admin/stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get admin stats: %w", err)
	}
	return &stats, nil
}

// AdminUsers lists every registered user
func (c *Client) AdminUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	if err := c.Call(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user account
func (c *Client) DeleteUser(ctx context.Context, id models.ID) error {
	path := fmt.Sprintf("/admin/users/%s", url.PathEscape(string(id)))
	if err := c.Call(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ExportReportsPDF downloads the reports PDF
func (c *Client) ExportReportsPDF(ctx context.Context) (*Download, error) {
	d, err := c.Download(ctx, "/export/reports-pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to export reports: %w", err)
	}
	return d, nil
}

// Profile operations

// UploadProfilePhoto replaces the current user's profile photo
func (c *Client) UploadProfilePhoto(ctx context.Context, photo *models.Photo) (*models.User, error) {
	var user models.User
	if err := c.UploadFile(ctx, "/users/upload-photo", photo, nil, &user); err != nil {
		return nil, fmt.Errorf("failed to upload profile photo: %w", err)
	}
	return &user, nil
}
