package nodeid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddress_StringSerialization(t *testing.T) {
	t.Parallel()

	require.Equal(t, "job.train.yolof_coco[2]", ForJob("train", "yolof_coco", 2).String())
	require.Equal(t, "resource.http_client.shared", ForResource("http_client", "shared").String())

	var nilAddr *Address
	require.Equal(t, "", nilAddr.String())
}

func TestAddress_Equal(t *testing.T) {
	t.Parallel()

	a := ForJob("train", "a", 0)
	b := ForJob("train", "a", 0)
	c := ForJob("train", "a", 1)

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(nil))

	var nilA, nilB *Address
	require.True(t, nilA.Equal(nilB))
}
