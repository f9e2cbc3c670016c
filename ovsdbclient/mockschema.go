package ovsdbclient

// mockSchemaJSON is a subset of vswitch.ovsschema.
const mockSchemaJSON = `{
  "name": "Open_vSwitch",
  "version": "8.3.0",
  "tables": {
    "Open_vSwitch": {
      "isRoot": true,
      "maxRows": 1,
      "columns": {
        "bridges": {"type": {"key": {"type": "uuid", "refTable": "Bridge"}, "min": 0, "max": "unlimited"}},
        "ovs_version": {"type": {"key": {"type": "string"}, "min": 0, "max": 1}},
        "external_ids": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}},
        "other_config": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}},
        "next_cfg": {"type": "integer"},
        "cur_cfg": {"type": "integer"}
      }
    },
    "Bridge": {
      "columns": {
        "name": {"type": "string", "mutable": false},
        "ports": {"type": {"key": {"type": "uuid", "refTable": "Port"}, "min": 0, "max": "unlimited"}},
        "controller": {"type": {"key": {"type": "uuid", "refTable": "Controller"}, "min": 0, "max": "unlimited"}},
        "fail_mode": {"type": {"key": {"type": "string", "enum": ["set", ["standalone", "secure"]]}, "min": 0, "max": 1}},
        "stp_enable": {"type": "boolean"},
        "rstp_enable": {"type": "boolean"},
        "protocols": {"type": {"key": {"type": "string", "enum": ["set", ["OpenFlow10", "OpenFlow11", "OpenFlow12", "OpenFlow13", "OpenFlow14", "OpenFlow15"]]}, "min": 0, "max": "unlimited"}},
        "datapath_type": {"type": "string"},
        "external_ids": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}},
        "other_config": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}}
      },
      "indexes": [["name"]]
    },
    "Port": {
      "columns": {
        "name": {"type": "string", "mutable": false},
        "interfaces": {"type": {"key": {"type": "uuid", "refTable": "Interface"}, "min": 1, "max": "unlimited"}},
        "tag": {"type": {"key": {"type": "integer", "minInteger": 0, "maxInteger": 4095}, "min": 0, "max": 1}},
        "external_ids": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}},
        "other_config": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}}
      },
      "indexes": [["name"]]
    },
    "Interface": {
      "columns": {
        "name": {"type": "string", "mutable": false},
        "type": {"type": "string"},
        "options": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}},
        "ofport": {"type": {"key": "integer", "min": 0, "max": 1}},
        "admin_state": {"type": {"key": {"type": "string", "enum": ["set", ["up", "down"]]}, "min": 0, "max": 1}},
        "external_ids": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}}
      },
      "indexes": [["name"]]
    },
    "Controller": {
      "columns": {
        "target": {"type": "string"},
        "role": {"type": {"key": {"type": "string", "enum": ["set", ["other", "master", "slave"]]}, "min": 0, "max": 1}},
        "connection_mode": {"type": {"key": {"type": "string", "enum": ["set", ["in-band", "out-of-band"]]}, "min": 0, "max": 1}},
        "is_connected": {"type": "boolean", "ephemeral": true},
        "external_ids": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}}
      }
    }
  }
}`
