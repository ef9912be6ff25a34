package disk_test

import (
	"os"
	"testing"

	"stegodb/pkg/disk"
	"stegodb/pkg/testutils"

	"github.com/ncw/directio"
	"github.com/stretchr/testify/require"
)

func TestAllocateReadWrite(t *testing.T) {
	dm, err := disk.Open(testutils.GetTempDbFile(t))
	require.NoError(t, err)
	defer dm.Close()

	require.EqualValues(t, 0, dm.NumPages())
	pn, err := dm.AllocatePage()
	require.NoError(t, err)
	require.EqualValues(t, 0, pn)
	require.EqualValues(t, 1, dm.NumPages())

	buf := directio.AlignedBlock(int(disk.Pagesize))
	copy(buf, "hello pages")
	require.NoError(t, dm.WritePage(pn, buf))

	out := directio.AlignedBlock(int(disk.Pagesize))
	require.NoError(t, dm.ReadPage(pn, out))
	require.Equal(t, buf, out)
}

func TestInvalidPagenums(t *testing.T) {
	dm, err := disk.Open(testutils.GetTempDbFile(t))
	require.NoError(t, err)
	defer dm.Close()

	buf := directio.AlignedBlock(int(disk.Pagesize))
	require.Error(t, dm.ReadPage(-1, buf))
	require.Error(t, dm.ReadPage(0, buf))
	require.Error(t, dm.WritePage(5, buf))
	// Wrong-size buffers are rejected too.
	pn, err := dm.AllocatePage()
	require.NoError(t, err)
	require.Error(t, dm.WritePage(pn, make([]byte, 16)))
}

func TestDeallocateReusesPagenums(t *testing.T) {
	dm, err := disk.Open(testutils.GetTempDbFile(t))
	require.NoError(t, err)
	defer dm.Close()

	var pns []int64
	for i := 0; i < 4; i++ {
		pn, err := dm.AllocatePage()
		require.NoError(t, err)
		pns = append(pns, pn)
	}
	dm.DeallocatePage(pns[2])
	dm.DeallocatePage(pns[1])
	// The lowest deallocated pagenum comes back first.
	pn, err := dm.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, pns[1], pn)
	pn, err = dm.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, pns[2], pn)
	// With the free ids used up, allocation extends the file again.
	pn, err = dm.AllocatePage()
	require.NoError(t, err)
	require.EqualValues(t, 4, pn)
}

func TestReopenKeepsPages(t *testing.T) {
	filename := testutils.GetTempDbFile(t)
	dm, err := disk.Open(filename)
	require.NoError(t, err)
	pn, err := dm.AllocatePage()
	require.NoError(t, err)
	buf := directio.AlignedBlock(int(disk.Pagesize))
	copy(buf, "durable")
	require.NoError(t, dm.WritePage(pn, buf))
	require.NoError(t, dm.Close())

	dm, err = disk.Open(filename)
	require.NoError(t, err)
	defer dm.Close()
	require.EqualValues(t, 1, dm.NumPages())
	out := directio.AlignedBlock(int(disk.Pagesize))
	require.NoError(t, dm.ReadPage(pn, out))
	require.Equal(t, []byte("durable"), out[:7])
}

func TestRejectsForeignFile(t *testing.T) {
	filename := testutils.GetTempDbFile(t)
	// A page-aligned file without our header must be refused.
	junk := make([]byte, disk.Pagesize)
	require.NoError(t, os.WriteFile(filename, junk, 0666))
	_, err := disk.Open(filename)
	require.Error(t, err)
}
