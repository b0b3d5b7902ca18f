package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const serviceName = "Docvault"

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(serviceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Status", StatusRequest{})
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	return call[ShutdownResponse](c, "Shutdown", ShutdownRequest{})
}

// CreateFile creates and starts watching a new document.
func (c *Client) CreateFile(req CreateFileRequest) (*CreateFileResponse, error) {
	return call[CreateFileResponse](c, "CreateFile", req)
}

// Watch adds an existing document to the watch set.
func (c *Client) Watch(path string) (*WatchResponse, error) {
	return call[WatchResponse](c, "Watch", WatchRequest{Path: path})
}

// Unwatch removes a document from the watch set.
func (c *Client) Unwatch(path string) (*WatchResponse, error) {
	return call[WatchResponse](c, "Unwatch", WatchRequest{Path: path})
}

// Watching lists the watch set.
func (c *Client) Watching() (*WatchingResponse, error) {
	return call[WatchingResponse](c, "Watching", WatchingRequest{})
}

// ListFiles queries document records.
func (c *Client) ListFiles(req ListFilesRequest) (*ListFilesResponse, error) {
	return call[ListFilesResponse](c, "ListFiles", req)
}

// Tags lists tags by usage.
func (c *Client) Tags() (*TagsResponse, error) {
	return call[TagsResponse](c, "Tags", TagsRequest{})
}

// Settings returns the effective settings.
func (c *Client) Settings() (*SettingsResponse, error) {
	return call[SettingsResponse](c, "GetSettings", GetSettingsRequest{})
}

// SaveSettings applies a settings patch.
func (c *Client) SaveSettings(req SaveSettingsRequest) (*SettingsResponse, error) {
	return call[SettingsResponse](c, "SaveSettings", req)
}

// Reconcile replays journaled record updates.
func (c *Client) Reconcile() (*ReconcileResponse, error) {
	return call[ReconcileResponse](c, "Reconcile", ReconcileRequest{})
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailResponse](c, "LogTail", req)
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	return call[DatabaseHealthResponse](c, "DatabaseHealth", DatabaseHealthRequest{})
}

// TestNotification asks the daemon to push a test notification.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}
