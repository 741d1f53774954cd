package modrinth

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/mcpanel/httpapi"
	"github.com/gaborage/mcpanel/internal/testutil"
	"github.com/gaborage/mcpanel/logger"
)

func TestCDNDownloadFile(t *testing.T) {
	u, server := newUpstream(t)
	u.GET("/data/:project/versions/:version/:file", func(c echo.Context) error {
		assert.Equal(t, string(httpapi.OctetStream), c.Request().Header.Get(echo.HeaderAccept))
		assert.Equal(t, testutil.TestAgent, c.Request().Header.Get(HeaderUserAgent))
		return c.Blob(http.StatusOK, echo.MIMEOctetStream, []byte("PK\x03\x04jar"))
	})

	cdn, err := NewCDN(testConfig("https://api.modrinth.invalid/v2/"), logger.Nop(), fastOptions()...)
	require.NoError(t, err)
	assert.Nil(t, cdn.client.Session().BaseURL)

	data, err := cdn.DownloadFile(context.Background(), server.URL+"/data/P7dR8mSH/versions/b2/fabric-api.jar")
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04jar"), data)
}

func TestCDNDownloadFileNotFound(t *testing.T) {
	_, server := newUpstream(t)

	cdn, err := NewCDN(testConfig(""), logger.Nop(), fastOptions()...)
	require.NoError(t, err)

	_, err = cdn.DownloadFile(context.Background(), server.URL+"/data/missing.jar")
	require.Error(t, err)
	assert.True(t, httpapi.IsHTTPStatusError(err, http.StatusNotFound))
}

func TestCDNRejectsRelativeURL(t *testing.T) {
	cdn, err := NewCDN(testConfig(""), logger.Nop(), fastOptions()...)
	require.NoError(t, err)

	_, err = cdn.DownloadFile(context.Background(), "data/file.jar")
	assert.True(t, httpapi.IsStatus(err, http.StatusBadRequest))
}
