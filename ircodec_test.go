package ircodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irwave/ircodec/ircode"
)

func TestFindFormatAliases(t *testing.T) {
	for name, want := range map[string]string{
		"raw":       "raw",
		"rawpm":     "raw",
		"nec":       "nec",
		"rc5":       "rc5",
		"broadlink": "broadlink",
		"b64":       "broadlink",
		"pronto":    "pronto",
	} {
		newFormat, err := FindFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, newFormat().Names()[0], name)
	}
}

func TestFindFormatUnknown(t *testing.T) {
	_, err := FindFormat("sirc")
	assert.IsType(t, &ircode.ParseError{}, err)
}

func TestFromStringDispatch(t *testing.T) {
	code, err := FromString("nec:tp=600:12,34")
	require.NoError(t, err)
	n, ok := code.(*ircode.NECCode)
	require.True(t, ok)
	assert.Equal(t, 600, n.PulseTime)
	assert.Equal(t, [][]byte{{0x12, 0x34}}, n.Data)
}

func TestFromStringNoColon(t *testing.T) {
	_, err := FromString("12,34")
	assert.IsType(t, &ircode.ParseError{}, err)
}

func TestFromStringTextRoundTrip(t *testing.T) {
	for _, text := range []string{
		"raw:f=36000:2/100,200;300,400",
		"nec:c=2,cm=3:12,34",
		"rc5:tb=900:5,35",
		"pronto::0000 006D 0002 0000 0158 00AC 0015 0040",
	} {
		code, err := FromString(text)
		require.NoError(t, err, text)
		assert.Equal(t, text, ircode.ToString(code), text)
	}
}

func TestFromStructDispatch(t *testing.T) {
	code, err := FromStruct(map[string]interface{}{
		"format": "rc5",
		"count":  2,
		"data":   []interface{}{map[string]interface{}{"addr": 5, "cmd": 35}},
	})
	require.NoError(t, err)
	c, ok := code.(*ircode.RC5Code)
	require.True(t, ok)
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, []ircode.RC5Packet{{Addr: 5, Cmd: 35}}, c.Data)
}

func TestFromStructMissingFormat(t *testing.T) {
	_, err := FromStruct(map[string]interface{}{"data": []interface{}{}})
	assert.IsType(t, &ircode.DataError{}, err)
}

func TestStructRoundTripAllFormats(t *testing.T) {
	for _, text := range []string{
		"raw::100,200,300,400",
		"nec:cm=1:12,34",
		"rc5::5,35",
		"pronto::0000 006D 0002 0000 0158 00AC 0015 0040",
	} {
		code, err := FromString(text)
		require.NoError(t, err, text)

		back, err := FromStruct(ircode.ToStruct(code, false))
		require.NoError(t, err, text)
		assert.Equal(t, code, back, text)
	}
}

func TestFromGenericShapes(t *testing.T) {
	fromText, err := FromGeneric("nec::12,34")
	require.NoError(t, err)

	fromTemplate, err := FromGeneric(TemplateData{
		Template: "nec",
		Data:     [][]int{{0x12, 0x34}},
	})
	require.NoError(t, err)
	assert.Equal(t, fromText, fromTemplate)

	fromNamed, err := FromGeneric(NamedTemplateData{
		Format: "nec",
		Params: "tp=563",
		Data:   [][]int{{0x12, 0x34}},
	})
	require.NoError(t, err)
	assert.Equal(t, fromText, fromNamed)

	fromStruct, err := FromGeneric(map[string]interface{}{
		"format": "nec",
		"data":   [][]int{{0x12, 0x34}},
	})
	require.NoError(t, err)
	assert.Equal(t, fromText, fromStruct)

	passthrough, err := FromGeneric(fromText)
	require.NoError(t, err)
	assert.Same(t, fromText, passthrough)

	_, err = FromGeneric(42)
	assert.IsType(t, &ircode.ParseError{}, err)
}
