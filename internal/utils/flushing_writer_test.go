package utils_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/triggershift/internal/utils"
)

func TestFlushingWriterFlushesBufferedWriters(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	bufferedWriter := bufio.NewWriter(destination)

	writer := utils.NewFlushingWriter(bufferedWriter)
	_, writeError := writer.Write([]byte("Changed           .github/workflows/ci.yml\n"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, "Changed           .github/workflows/ci.yml\n", destination.String())
}

func TestFlushingWriterDoesNotWrapTwice(testInstance *testing.T) {
	writer := utils.NewFlushingWriter(&bytes.Buffer{})
	require.Same(testInstance, writer, utils.NewFlushingWriter(writer))
	require.Nil(testInstance, utils.NewFlushingWriter(nil))
}
