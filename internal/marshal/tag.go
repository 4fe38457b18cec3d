package marshal

import "fmt"

// Tag 是流中标识后续解码规则的单字节类型标记。
type Tag byte

const (
	TagNil        Tag = 0x30 // '0'
	TagTrue       Tag = 0x54 // 'T'
	TagFalse      Tag = 0x46 // 'F'
	TagFixnum     Tag = 0x69 // 'i'
	TagSymbol     Tag = 0x3A // ':'
	TagSymlink    Tag = 0x3B // ';'
	TagLink       Tag = 0x40 // '@'
	TagArray      Tag = 0x5B // '['
	TagHash       Tag = 0x7B // '{'
	TagHashDef    Tag = 0x7D // '}'
	TagFloat      Tag = 0x66 // 'f'
	TagBignum     Tag = 0x6C // 'l'
	TagString     Tag = 0x22 // '"'
	TagRegexp     Tag = 0x2F // '/'
	TagIVar       Tag = 0x49 // 'I'
	TagUsrMarshal Tag = 0x55 // 'U'
	TagUserDef    Tag = 0x75 // 'u'
	TagObject     Tag = 0x6F // 'o'
	TagStruct     Tag = 0x53 // 'S'
	TagData       Tag = 0x64 // 'd'
	TagModule     Tag = 0x6D // 'm'
	TagModuleOld  Tag = 0x4D // 'M'
	TagClass      Tag = 0x63 // 'c'
	TagExtended   Tag = 0x65 // 'e'
	TagUserClass  Tag = 0x43 // 'C'
)

// tagInfo 描述一个标记的名称以及解码时是否占用对象槽位。
type tagInfo struct {
	name    string
	reserve bool
}

var tagCatalog = map[Tag]tagInfo{
	TagNil:        {name: "nil"},
	TagTrue:       {name: "true"},
	TagFalse:      {name: "false"},
	TagFixnum:     {name: "fixnum"},
	TagSymbol:     {name: "symbol"},
	TagSymlink:    {name: "symlink"},
	TagLink:       {name: "link"},
	TagArray:      {name: "array", reserve: true},
	TagHash:       {name: "hash", reserve: true},
	TagHashDef:    {name: "hash_def", reserve: true},
	TagFloat:      {name: "float", reserve: true},
	TagBignum:     {name: "bignum", reserve: true},
	TagString:     {name: "string", reserve: true},
	TagRegexp:     {name: "regexp", reserve: true},
	TagIVar:       {name: "ivar"},
	TagUsrMarshal: {name: "usrmarshal", reserve: true},
	TagUserDef:    {name: "userdef", reserve: true},
	TagObject:     {name: "object", reserve: true},
	TagStruct:     {name: "struct", reserve: true},
	TagData:       {name: "data", reserve: true},
	TagModule:     {name: "module", reserve: true},
	TagModuleOld:  {name: "module_old", reserve: true},
	TagClass:      {name: "class", reserve: true},
	TagExtended:   {name: "extended"},
	TagUserClass:  {name: "uclass"},
}

// Known 判断标记是否属于已知的标记集合。
func (t Tag) Known() bool {
	_, ok := tagCatalog[t]
	return ok
}

// ReservesSlot 判断该标记对应的值是否占用对象反向引用表中的一个槽位。
// ivar、extended 与 uclass 只是包装，槽位由被包装的值占用。
func (t Tag) ReservesSlot() bool {
	return tagCatalog[t].reserve
}

func (t Tag) String() string {
	if info, ok := tagCatalog[t]; ok {
		return info.name
	}
	return fmt.Sprintf("0x%02x", byte(t))
}
