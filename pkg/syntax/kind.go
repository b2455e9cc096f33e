package syntax

// Kind classifies the tree-sitter node types the analysis cares about.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindCompilationUnit
	KindNamespace
	KindClass
	KindStruct
	KindInterface
	KindRecord
	KindEnum
	KindDelegate
	KindEnumMember
	KindMethod
	KindConstructor
	KindField
	KindProperty
	KindEvent
	KindInvocation
)

var nodeKinds = map[string]Kind{
	"compilation_unit":                  KindCompilationUnit,
	"namespace_declaration":             KindNamespace,
	"file_scoped_namespace_declaration": KindNamespace,
	"class_declaration":                 KindClass,
	"struct_declaration":                KindStruct,
	"interface_declaration":             KindInterface,
	"record_declaration":                KindRecord,
	"record_struct_declaration":         KindRecord,
	"enum_declaration":                  KindEnum,
	"delegate_declaration":              KindDelegate,
	"enum_member_declaration":           KindEnumMember,
	"method_declaration":                KindMethod,
	"constructor_declaration":           KindConstructor,
	"field_declaration":                 KindField,
	"property_declaration":              KindProperty,
	"event_field_declaration":           KindEvent,
	"event_declaration":                 KindEvent,
	"invocation_expression":             KindInvocation,
}

var kindNames = [...]string{
	KindUnknown:         "Unknown",
	KindCompilationUnit: "CompilationUnit",
	KindNamespace:       "Namespace",
	KindClass:           "Class",
	KindStruct:          "Struct",
	KindInterface:       "Interface",
	KindRecord:          "Record",
	KindEnum:            "Enum",
	KindDelegate:        "Delegate",
	KindEnumMember:      "EnumMember",
	KindMethod:          "Method",
	KindConstructor:     "Constructor",
	KindField:           "Field",
	KindProperty:        "Property",
	KindEvent:           "Event",
	KindInvocation:      "Invocation",
}

// KindOf maps a tree-sitter node type to a Kind.
func KindOf(nodeType string) Kind {
	return nodeKinds[nodeType]
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// IsType reports whether k declares a type (including delegates).
func (k Kind) IsType() bool {
	return CategoryType.Has(k)
}

// Category is a set of kinds. Enumeration is parameterized by categories
// rather than written once per kind.
type Category uint32

// Categories builds a category from kinds.
func Categories(kinds ...Kind) Category {
	var c Category
	for _, k := range kinds {
		c |= 1 << k
	}
	return c
}

// Has reports whether k is in the category.
func (c Category) Has(k Kind) bool {
	return k != KindUnknown && c&(1<<k) != 0
}

var (
	CategoryMethod            = Categories(KindMethod)
	CategoryMember            = Categories(KindField, KindProperty, KindEvent)
	CategoryType              = Categories(KindClass, KindStruct, KindInterface, KindRecord, KindEnum, KindDelegate)
	CategoryMemberDeclaration = CategoryType | CategoryMethod | CategoryMember | Categories(KindConstructor, KindEnumMember)
	CategoryInvocation        = Categories(KindInvocation)
)

// typeContainers are the kinds whose members count as nested.
var typeContainers = Categories(KindClass, KindStruct, KindInterface, KindRecord)
